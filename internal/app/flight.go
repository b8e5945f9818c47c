// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/plane_tilt/internal/accel"
	"github.com/relabs-tech/plane_tilt/internal/link"
	"github.com/relabs-tech/plane_tilt/internal/orientation"
	"github.com/relabs-tech/plane_tilt/internal/scene"
	"github.com/relabs-tech/plane_tilt/internal/telemetry"
)

// Outcome tells what happened during one tick.
type Outcome int

const (
	// OutcomeApplied: a frame was decoded and integrated.
	OutcomeApplied Outcome = iota
	// OutcomeUnavailable: the link was not available, nothing changed.
	OutcomeUnavailable
	// OutcomeReadError: reading the link failed, nothing changed.
	OutcomeReadError
	// OutcomeDecodeError: the frame was rejected, nothing changed.
	OutcomeDecodeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeReadError:
		return "read-error"
	case OutcomeDecodeError:
		return "decode-error"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Stats counts tick outcomes since the flight started.
type Stats struct {
	Ticks        uint64
	Applied      uint64
	Unavailable  uint64
	ReadErrors   uint64
	DecodeErrors uint64
	Malformed    uint64
	InvalidField uint64
}

// FlightOptions configure a Flight.
type FlightOptions struct {
	Link       link.Link
	Decoder    accel.FrameDecoder
	Tuning     orientation.Tuning
	Scene      *scene.Scene
	Publishers []telemetry.Publisher
	Session    string
	// Interval is the nominal tick period, used as dt for the first tick.
	Interval time.Duration
	// ReopenInterval throttles reopen attempts on links that support it.
	ReopenInterval time.Duration
}

// Flight runs one decode+integrate cycle per tick.
type Flight struct {
	link       link.Link
	decoder    accel.FrameDecoder
	integrator *orientation.Integrator
	scene      *scene.Scene
	publishers []telemetry.Publisher
	session    string

	interval       time.Duration
	reopenInterval time.Duration
	lastTick       time.Time
	lastReopen     time.Time

	seq   uint64
	last  orientation.TickResult
	stats Stats
}

func NewFlight(opts FlightOptions) (*Flight, error) {
	if opts.Link == nil {
		return nil, errors.New("flight: link is required")
	}
	if opts.Decoder == nil {
		opts.Decoder = accel.NewDecoder(accel.DefaultDelimiter)
	}
	if err := opts.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("flight: %w", err)
	}
	if opts.Scene == nil {
		opts.Scene = scene.New(scene.DefaultCameraOffset)
	}
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Millisecond
	}
	return &Flight{
		link:           opts.Link,
		decoder:        opts.Decoder,
		integrator:     orientation.NewIntegrator(opts.Tuning),
		scene:          opts.Scene,
		publishers:     opts.Publishers,
		session:        opts.Session,
		interval:       opts.Interval,
		reopenInterval: opts.ReopenInterval,
	}, nil
}

// Tick runs one cycle at time now. When the link is unavailable or the
// frame is rejected the orientation state is left untouched and the
// returned error (if any) describes why. Errors are never fatal.
func (f *Flight) Tick(now time.Time) (Outcome, error) {
	dt := f.interval.Seconds()
	if !f.lastTick.IsZero() {
		dt = now.Sub(f.lastTick).Seconds()
	}
	f.lastTick = now
	f.stats.Ticks++

	f.scene.Frame()

	if !f.link.IsAvailable() {
		f.tryReopen(now)
	}
	if !f.link.IsAvailable() {
		f.stats.Unavailable++
		return OutcomeUnavailable, nil
	}

	line, err := f.link.ReadLine()
	if err != nil {
		f.stats.ReadErrors++
		return OutcomeReadError, err
	}

	reading, err := f.decoder.Decode(line)
	if err != nil {
		f.stats.DecodeErrors++
		var fieldErr *accel.InvalidFieldError
		switch {
		case errors.Is(err, accel.ErrMalformedFrame):
			f.stats.Malformed++
		case errors.As(err, &fieldErr):
			f.stats.InvalidField++
		}
		return OutcomeDecodeError, fmt.Errorf("frame %q: %w", line, err)
	}

	res := f.integrator.Update(reading, dt)
	f.scene.Apply(res)
	f.last = res
	f.stats.Applied++
	f.seq++

	snap := telemetry.Snapshot{
		Session: f.session,
		Seq:     f.seq,
		Time:    now,
		Reading: reading,
		Tick:    res,
		Scene:   f.scene.Snapshot(),
	}
	for _, p := range f.publishers {
		if err := p.Publish(snap); err != nil {
			log.Printf("flight: publish error: %v", err)
		}
	}
	return OutcomeApplied, nil
}

func (f *Flight) tryReopen(now time.Time) {
	r, ok := f.link.(link.Reopener)
	if !ok {
		return
	}
	if !f.lastReopen.IsZero() && now.Sub(f.lastReopen) < f.reopenInterval {
		return
	}
	f.lastReopen = now
	if err := r.Reopen(); err != nil {
		log.Printf("flight: link reopen failed: %v", err)
	}
}

// Last returns the result of the most recent applied tick.
func (f *Flight) Last() orientation.TickResult { return f.last }

// Heading returns the persistent heading in degrees.
func (f *Flight) Heading() float64 { return f.integrator.Heading() }

func (f *Flight) Stats() Stats { return f.stats }

func (f *Flight) Scene() *scene.Scene { return f.scene }

// Close closes the link.
func (f *Flight) Close() error { return f.link.Close() }
