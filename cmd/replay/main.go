// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/replay/main.go
//
// Replays a recorded frame file through the decoder and the orientation
// integrator on a simulated clock and prints every tick.
//
// Run:
//
//	go run ./cmd/replay -frames flight.log
//	go run ./cmd/replay -frames flight.nmea -framing nmea -speed 12 -direction 8
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/plane_tilt/internal/app"
	"github.com/relabs-tech/plane_tilt/internal/config"
)

func main() {
	configPath := flag.String("config", "", "optional configuration file (tunables and framing)")
	framesPath := flag.String("frames", "", "recorded frame file, one frame per line")
	framing := flag.String("framing", "", "override link.framing: plain or nmea")
	speed := flag.Float64("speed", 0, "override flight.speed_scale")
	direction := flag.Float64("direction", 0, "override flight.direction_scale")
	flag.Parse()

	if *framesPath == "" {
		fmt.Fprintln(os.Stderr, "ERROR: -frames is required")
		flag.Usage()
		os.Exit(2)
	}

	// The replay file doubles as the link source so config validation passes
	// without a serial port.
	cfg, err := config.LoadReplay(*configPath, *framesPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *framing != "" {
		cfg.Link.Framing = *framing
	}
	if *speed != 0 {
		cfg.Flight.SpeedScale = *speed
	}
	if *direction != 0 {
		cfg.Flight.DirectionScale = *direction
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid overrides: %v", err)
	}

	f, err := os.Open(*framesPath)
	if err != nil {
		log.Fatalf("open frames: %v", err)
	}
	defer f.Close()

	if _, err := app.RunReplay(f, os.Stdout, app.ReplayOptions{
		Decoder:  app.NewDecoder(cfg),
		Tuning:   cfg.Tuning(),
		Interval: cfg.TickInterval(),
	}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
