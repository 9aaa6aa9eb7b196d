package sinks

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"minion-keep/server/logging"
)

func TestGzipJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sink := NewGzipJSON(&buf, 0)

	for i := 0; i < 3; i++ {
		err := sink.Write(logging.Event{
			Type:     "test.event",
			Tick:     uint64(i),
			Time:     time.Unix(int64(100+i), 0).UTC(),
			Severity: logging.SeverityInfo,
			Category: logging.CategorySimulation,
		})
		if err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	reader, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("expected a valid gzip stream: %v", err)
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	lines := 0
	for scanner.Scan() {
		var decoded map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("line %d is not JSON: %v", lines, err)
		}
		if decoded["type"] != "test.event" {
			t.Fatalf("unexpected type in line %d: %v", lines, decoded["type"])
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != 3 {
		t.Fatalf("expected 3 event lines, got %d", lines)
	}
}

func TestMemorySinkCapturesAndResets(t *testing.T) {
	sink := NewMemory()
	sink.Write(logging.Event{Type: "a"})
	sink.Write(logging.Event{Type: "b"})

	if got := len(sink.Events()); got != 2 {
		t.Fatalf("expected 2 captured events, got %d", got)
	}
	sink.Reset()
	if got := len(sink.Events()); got != 0 {
		t.Fatalf("expected reset to clear events, got %d", got)
	}
}
