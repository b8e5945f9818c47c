package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/plane_tilt/internal/app"
	"github.com/relabs-tech/plane_tilt/internal/config"
)

func main() {
	configPath := flag.String("config", "./plane.yaml", "path to configuration file")
	flag.Parse()

	log.Println("starting plane-tilt console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
