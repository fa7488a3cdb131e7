package main

import (
	"flag"
	"log"

	"gamestats/internal/di"
	"gamestats/internal/structures"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the yaml config file")
	debug := flag.Bool("debug", false, "enable debug mode")
	flag.Parse()

	flags := &structures.CliFlags{
		ConfigPath: *configPath,
		DebugMode:  *debug,
	}

	if _, err := di.InitApp(flags); err != nil {
		log.Fatalf("failed to start: %s", err)
	}
}
