package main

import (
	"context"
	"flag"
	"log"

	"minion-keep/server/internal/app"
)

func main() {
	cfg := app.Config{}
	flag.StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	flag.StringVar(&cfg.ConfigPath, "config", "", "path to the world config YAML")
	flag.StringVar(&cfg.ClientDir, "client", "", "directory of client assets to serve at /")
	flag.Parse()

	if err := app.Run(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
