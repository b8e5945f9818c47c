package telemetry

import (
	"time"

	"github.com/relabs-tech/plane_tilt/internal/accel"
	"github.com/relabs-tech/plane_tilt/internal/orientation"
	"github.com/relabs-tech/plane_tilt/internal/scene"
)

// Snapshot is the JSON document published after every applied tick.
type Snapshot struct {
	Session string                 `json:"session"`
	Seq     uint64                 `json:"seq"`
	Time    time.Time              `json:"time"`
	Reading accel.Reading          `json:"reading"`
	Tick    orientation.TickResult `json:"tick"`
	Scene   scene.Snapshot         `json:"scene"`
}

// Publisher delivers snapshots to viewers.
type Publisher interface {
	Publish(s Snapshot) error
}
