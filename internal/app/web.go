package app

import (
	"fmt"
	"log"
	"net/http"

	"github.com/relabs-tech/plane_tilt/internal/config"
	"github.com/relabs-tech/plane_tilt/internal/telemetry"
)

// NewWebMux routes the viewer endpoints to hub:
//
//	/api/orientation  latest snapshot as JSON
//	/ws               live snapshot stream
func NewWebMux(hub *telemetry.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orientation", hub.HandleLatest)
	mux.Handle("/ws", hub)
	return mux
}

// RunWeb relays snapshots from MQTT to websocket viewers.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	hub := telemetry.NewHub()

	// 1) Subscribe to the tick topic and fan every snapshot out to viewers
	disconnect, err := telemetry.SubscribeMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDWeb, cfg.MQTT.TopicTick,
		func(s telemetry.Snapshot) {
			if err := hub.Publish(s); err != nil {
				log.Printf("web: hub publish error: %v", err)
			}
		})
	if err != nil {
		return err
	}
	defer disconnect()

	// 2) Serve the JSON and websocket endpoints
	addr := fmt.Sprintf(":%d", cfg.Web.Port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, NewWebMux(hub))
}
