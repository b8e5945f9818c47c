package orientation

import (
	"errors"
	"math"

	"github.com/relabs-tech/plane_tilt/internal/accel"
)

// Full turn in degrees. Heading is kept inside the open interval
// (-fullTurn, fullTurn).
const fullTurn = 360.0

// Default tunables, matching the values the sensor firmware was tuned with.
const (
	DefaultSpeedScale     = 20.0
	DefaultDirectionScale = 5.0
)

// State is the only orientation memory carried from one tick to the next.
// It is owned by a single caller and mutated only by Update.
type State struct {
	HeadingDeg float64 `json:"heading_deg"`
}

// Tuning holds the scale factors applied on every update.
type Tuning struct {
	// SpeedScale is the forward distance travelled per second.
	SpeedScale float64 `json:"speed_scale"`
	// DirectionScale divides the instantaneous yaw before it is added to the
	// heading, so the body turns slower than it leans.
	DirectionScale float64 `json:"direction_scale"`
}

// DefaultTuning returns the default scale factors.
func DefaultTuning() Tuning {
	return Tuning{SpeedScale: DefaultSpeedScale, DirectionScale: DefaultDirectionScale}
}

// Validate reports scale factors that would poison the heading.
func (t Tuning) Validate() error {
	if math.IsNaN(t.DirectionScale) || math.IsInf(t.DirectionScale, 0) || t.DirectionScale <= 0 {
		return errors.New("direction scale must be a positive finite number")
	}
	if math.IsNaN(t.SpeedScale) || math.IsInf(t.SpeedScale, 0) || t.SpeedScale < 0 {
		return errors.New("speed scale must be a non-negative finite number")
	}
	return nil
}

// TickResult is everything derived from one reading.
type TickResult struct {
	PitchDeg float64 `json:"pitch_deg"`
	// YawDeg is the instantaneous yaw taken from the sensor's y axis.
	YawDeg  float64 `json:"yaw_deg"`
	BankDeg float64 `json:"bank_deg"`
	// HeadingDeltaDeg is what this tick added to the heading (0 when YawDeg is 0).
	HeadingDeltaDeg float64 `json:"heading_delta_deg"`
	// CombinedYawDeg is the heading before this tick plus YawDeg; it is the
	// rotation to render, leaning into the turn.
	CombinedYawDeg float64 `json:"combined_yaw_deg"`
	// HeadingDeg is the heading after this tick.
	HeadingDeg      float64 `json:"heading_deg"`
	ForwardDistance float64 `json:"forward_distance"`
}

// Update integrates one reading into st and returns the derived angles.
//
//	pitch   = round1(x) * 180
//	yaw     = round1(y) * -180
//	bank    = -yaw / 2
//	heading += yaw / DirectionScale   (only when yaw != 0)
//	forward = SpeedScale * dt
//
// The heading is wrapped with a single ±360 correction, which assumes one
// tick never moves it by a full turn or more.
func Update(st *State, r accel.Reading, dtSeconds float64, t Tuning) TickResult {
	pitch := round1(r.X) * 180
	yaw := round1(r.Y) * -180
	bank := -yaw / 2

	before := st.HeadingDeg
	var delta float64
	if math.Abs(yaw) > 0 {
		delta = yaw / t.DirectionScale
		st.HeadingDeg = wrapHeading(st.HeadingDeg + delta)
	}

	return TickResult{
		PitchDeg:        pitch,
		YawDeg:          yaw,
		BankDeg:         bank,
		HeadingDeltaDeg: delta,
		CombinedYawDeg:  before + yaw,
		HeadingDeg:      st.HeadingDeg,
		ForwardDistance: t.SpeedScale * dtSeconds,
	}
}

func wrapHeading(h float64) float64 {
	if h >= fullTurn {
		return h - fullTurn
	}
	if h <= -fullTurn {
		return h + fullTurn
	}
	return h
}

// round1 rounds v to one decimal place, halves to even.
func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

// Integrator owns a State and a Tuning and applies Update to them.
type Integrator struct {
	state  State
	tuning Tuning
}

// NewIntegrator returns an Integrator with a zero heading.
func NewIntegrator(t Tuning) *Integrator {
	return &Integrator{tuning: t}
}

// Update integrates one reading taken dtSeconds after the previous one.
func (in *Integrator) Update(r accel.Reading, dtSeconds float64) TickResult {
	return Update(&in.state, r, dtSeconds, in.tuning)
}

// Heading returns the current heading in degrees.
func (in *Integrator) Heading() float64 { return in.state.HeadingDeg }

// State returns a copy of the integrator state.
func (in *Integrator) State() State { return in.state }

// Tuning returns the scale factors the integrator was built with.
func (in *Integrator) Tuning() Tuning { return in.tuning }
