// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/plane_tilt/internal/accel"
	"github.com/relabs-tech/plane_tilt/internal/link"
	"github.com/relabs-tech/plane_tilt/internal/orientation"
	"github.com/relabs-tech/plane_tilt/internal/telemetry"
)

// ReplayOptions configure RunReplay.
type ReplayOptions struct {
	Decoder  accel.FrameDecoder
	Tuning   orientation.Tuning
	Interval time.Duration
	// Start is the simulated time of the first tick.
	Start time.Time
}

// RunReplay feeds every line of frames through a Flight on a simulated
// clock, one line per tick, printing each applied tick to out. Rejected
// frames are logged and skipped. It returns the final stats.
func RunReplay(frames io.Reader, out io.Writer, opts ReplayOptions) (Stats, error) {
	if opts.Start.IsZero() {
		opts.Start = time.Unix(0, 0).UTC()
	}
	flight, err := NewFlight(FlightOptions{
		Link:       link.NewReader(frames),
		Decoder:    opts.Decoder,
		Tuning:     opts.Tuning,
		Publishers: []telemetry.Publisher{consolePublisher{w: out}},
		Session:    "replay",
		Interval:   opts.Interval,
	})
	if err != nil {
		return Stats{}, err
	}
	defer flight.Close()

	now := opts.Start
	for flight.link.IsAvailable() {
		outcome, err := flight.Tick(now)
		if err != nil && outcome == OutcomeDecodeError {
			log.Printf("replay: %v", err)
		}
		now = now.Add(flight.interval)
	}

	st := flight.Stats()
	_, err = fmt.Fprintf(out, "replayed %d lines: %d applied, %d malformed, %d invalid, final heading %.2f\n",
		st.Applied+st.DecodeErrors, st.Applied, st.Malformed, st.InvalidField, flight.Heading())
	return st, err
}
