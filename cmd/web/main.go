// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

	log.Println("starting plane-tilt web relay (MQTT subscriber → websocket)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Note: snapshots only arrive while the flight loop is running (./flight)")

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
