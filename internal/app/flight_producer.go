// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/plane_tilt/internal/accel"
	"github.com/relabs-tech/plane_tilt/internal/config"
	"github.com/relabs-tech/plane_tilt/internal/link"
	"github.com/relabs-tech/plane_tilt/internal/scene"
	"github.com/relabs-tech/plane_tilt/internal/telemetry"
)

// NewDecoder returns the frame decoder for the configured framing.
func NewDecoder(cfg *config.Config) accel.FrameDecoder {
	if link.Framing(cfg.Link.Framing) == link.FramingNMEA {
		return accel.NewNMEADecoder()
	}
	return accel.NewDecoder(cfg.Link.Delimiter)
}

// OpenLink opens the configured link source.
func OpenLink(cfg *config.Config) (link.Link, error) {
	switch cfg.Link.Source {
	case config.SourceMock:
		log.Println("flight: using mock accelerometer link")
		return link.NewMock(nil, link.Framing(cfg.Link.Framing)), nil
	case config.SourceReplay:
		f, err := os.Open(cfg.Link.ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("open replay file: %w", err)
		}
		log.Printf("flight: replaying frames from %s", cfg.Link.ReplayPath)
		return link.NewReader(f), nil
	default:
		s, err := link.OpenSerial(link.SerialOptions{
			PortName: cfg.Link.Port,
			BaudRate: cfg.Link.BaudRate,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// RunFlight reads the accelerometer link once per tick until ctx is done,
// integrating every frame and publishing snapshots to MQTT when a broker is
// configured.
func RunFlight(ctx context.Context) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	session := uuid.NewString()
	log.Printf("starting plane flight loop (session %s)", session)

	l, err := OpenLink(cfg)
	if err != nil {
		return err
	}

	var publishers []telemetry.Publisher
	if cfg.MQTT.Broker != "" {
		pub, err := telemetry.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDFlight, cfg.MQTT.TopicTick)
		if err != nil {
			l.Close()
			return err
		}
		defer pub.Close()
		publishers = append(publishers, pub)
	} else {
		log.Println("flight: no MQTT broker configured, snapshots are not published")
	}

	interval := cfg.TickInterval()
	flight, err := NewFlight(FlightOptions{
		Link:           l,
		Decoder:        NewDecoder(cfg),
		Tuning:         cfg.Tuning(),
		Scene:          scene.New(scene.DefaultCameraOffset),
		Publishers:     publishers,
		Session:        session,
		Interval:       interval,
		ReopenInterval: cfg.Link.ReopenInterval,
	})
	if err != nil {
		l.Close()
		return err
	}
	defer flight.Close()

	tu := flight.integrator.Tuning()
	log.Printf("flight: ticking at %s (every %s), speed scale %.2f, direction scale %.2f",
		cfg.TickRate(), interval, tu.SpeedScale, tu.DirectionScale)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fly(ctx, flight, ticker.C, cfg.Log.EveryTicks)
	return nil
}

// fly ticks f for every time received on ticks until ctx is done. The link
// is closed as soon as ctx is done so that a read blocked on a silent
// sensor returns.
func fly(ctx context.Context, f *Flight, ticks <-chan time.Time, everyTicks int) {
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			if err := f.Close(); err != nil {
				log.Printf("flight: link close error: %v", err)
			}
		case <-stopped:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			st := f.Stats()
			log.Printf("flight: stopping after %d ticks (%d applied, %d unavailable, %d read errors, %d decode errors)",
				st.Ticks, st.Applied, st.Unavailable, st.ReadErrors, st.DecodeErrors)
			return
		case t := <-ticks:
			if ctx.Err() != nil {
				continue
			}
			outcome, err := f.Tick(t)
			if err != nil {
				log.Printf("flight: tick skipped (%s): %v", outcome, err)
			}
			if everyTicks > 0 && f.Stats().Ticks%uint64(everyTicks) == 0 {
				logSummary(t, f)
			}
		}
	}
}

func logSummary(t time.Time, f *Flight) {
	st := f.Stats()
	res := f.Last()
	snap := f.Scene().Snapshot()
	log.Printf("%s tick %d: pitch=%s yaw=%s bank=%s heading=%s | pos x=%.1f z=%.1f | applied=%d unavailable=%d malformed=%d invalid=%d",
		t.Format(time.RFC3339), st.Ticks,
		degrees(res.PitchDeg), degrees(res.YawDeg), degrees(res.BankDeg), degrees(f.Heading()),
		snap.Body.Position.X, snap.Body.Position.Z,
		st.Applied, st.Unavailable, st.Malformed, st.InvalidField,
	)
}

// degrees formats an angle with periph's unit printer.
func degrees(deg float64) physic.Angle {
	return physic.Angle(deg * float64(physic.Degree))
}
