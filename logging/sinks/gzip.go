package sinks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"minion-keep/server/logging"
)

// GzipJSON wraps the JSON sink with gzip compression so long-running servers
// can keep full event logs on disk at a fraction of the size.
type GzipJSON struct {
	mu     sync.Mutex
	gz     *gzip.Writer
	inner  *JSON
	closer io.Closer
}

// NewGzipJSON constructs a compressed JSON-lines sink writing to w. When w is
// also an io.Closer it is closed together with the sink.
func NewGzipJSON(w io.Writer, flushInterval time.Duration) *GzipJSON {
	if w == nil {
		w = io.Discard
	}
	gz, _ := gzip.NewWriterLevel(w, gzip.BestSpeed)
	sink := &GzipJSON{
		gz:    gz,
		inner: NewJSON(gz, flushInterval),
	}
	if closer, ok := w.(io.Closer); ok {
		sink.closer = closer
	}
	return sink
}

func (s *GzipJSON) Write(event logging.Event) error {
	return s.inner.Write(event)
}

func (s *GzipJSON) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inner.Close(ctx); err != nil {
		return err
	}
	if err := s.gz.Close(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
