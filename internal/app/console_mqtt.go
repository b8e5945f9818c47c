package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/plane_tilt/internal/config"
	"github.com/relabs-tech/plane_tilt/internal/telemetry"
)

// FormatSnapshot renders a snapshot as one console line.
func FormatSnapshot(s telemetry.Snapshot) string {
	return fmt.Sprintf(
		"[TICK %6d] PITCH=%7.2f YAW=%7.2f BANK=%7.2f HEADING=%7.2f  FWD=%5.2f  POS x=%8.2f z=%8.2f  PROP=%3d",
		s.Seq,
		s.Tick.PitchDeg, s.Tick.CombinedYawDeg, s.Tick.BankDeg, s.Tick.HeadingDeg,
		s.Tick.ForwardDistance,
		s.Scene.Body.Position.X, s.Scene.Body.Position.Z,
		s.Scene.PropellerDeg,
	)
}

// consolePublisher prints every snapshot to w.
type consolePublisher struct {
	w io.Writer
}

func (p consolePublisher) Publish(s telemetry.Snapshot) error {
	_, err := fmt.Fprintln(p.w, FormatSnapshot(s))
	return err
}

// RunConsoleMQTT prints every snapshot published by the flight loop until
// interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	out := consolePublisher{w: os.Stdout}
	disconnect, err := telemetry.SubscribeMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDConsole, cfg.MQTT.TopicTick,
		func(s telemetry.Snapshot) {
			_ = out.Publish(s)
		})
	if err != nil {
		return err
	}
	log.Printf("console: subscribed to %s", cfg.MQTT.TopicTick)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	disconnect()
	return nil
}
