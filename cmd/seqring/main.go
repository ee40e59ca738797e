// Command seqring exercises a seqring.Buffer with the smoke and stress
// scenarios.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/aradilov/seqring/internal/config"
	"github.com/aradilov/seqring/internal/harness"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults are used when empty)")
	mode := flag.String("mode", "all", "Scenario to run: smoke, stress or all")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	switch *mode {
	case "smoke", "stress", "all":
	default:
		log.Fatalf("Unknown mode %q", *mode)
	}

	if *mode == "smoke" || *mode == "all" {
		if _, err := harness.Smoke(cfg.Smoke, logger); err != nil {
			log.Fatalf("Smoke failed: %v", err)
		}
		logger.Println("smoke: ok")
	}

	if *mode == "stress" || *mode == "all" {
		report, err := harness.Stress(context.Background(), cfg.Stress, logger)
		if err != nil {
			log.Fatalf("Stress failed: %v", err)
		}
		logger.Printf("stress: ok, reader stats %+v", report.Readers)
	}
}
