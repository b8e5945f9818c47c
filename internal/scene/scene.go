package scene

import (
	"math"
	"sync"

	"github.com/relabs-tech/plane_tilt/internal/orientation"
)

// Actor consumes the result of one applied tick.
type Actor interface {
	Apply(res orientation.TickResult)
}

// Vec3 is a position in scene units. Y is up, Z is forward at heading 0.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Forward returns the unit vector pointing along headingDeg, rotating
// clockwise about the up axis when seen from above.
func Forward(headingDeg float64) Vec3 {
	rad := headingDeg * math.Pi / 180
	return Vec3{X: math.Sin(rad), Z: math.Cos(rad)}
}

// rotateAround rotates p about the vertical axis through pivot by angleDeg.
func rotateAround(p, pivot Vec3, angleDeg float64) Vec3 {
	rad := angleDeg * math.Pi / 180
	s, c := math.Sin(rad), math.Cos(rad)
	d := p.Sub(pivot)
	return pivot.Add(Vec3{
		X: d.X*c + d.Z*s,
		Y: d.Y,
		Z: -d.X*s + d.Z*c,
	})
}

// Rotation holds Euler angles in degrees: pitch about X, yaw about Y and
// bank about Z.
type Rotation struct {
	PitchDeg float64 `json:"pitch_deg"`
	YawDeg   float64 `json:"yaw_deg"`
	BankDeg  float64 `json:"bank_deg"`
}

// Body is the moving object.
type Body struct {
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// Camera trails the body.
type Camera struct {
	Position Vec3 `json:"position"`
	// OrbitDeg is the total angle the camera has swung around the body.
	OrbitDeg float64 `json:"orbit_deg"`
}

// DefaultCameraOffset places the camera behind and above the body.
var DefaultCameraOffset = Vec3{Y: 2, Z: -8}

// Snapshot is a copy of the scene state.
type Snapshot struct {
	Body         Body    `json:"body"`
	Camera       Camera  `json:"camera"`
	PropellerDeg int     `json:"propeller_deg"`
	Ticks        uint64  `json:"ticks"`
	Travelled    float64 `json:"travelled"`
}

// Scene is a headless stand-in for the rendered world: it moves the body
// forward along its heading and keeps the camera behind it.
type Scene struct {
	mu        sync.Mutex
	body      Body
	camera    Camera
	propeller *Propeller
	ticks     uint64
	travelled float64
}

// New returns a scene with the body at the origin and the camera at
// cameraOffset from it.
func New(cameraOffset Vec3) *Scene {
	return &Scene{
		camera:    Camera{Position: cameraOffset},
		propeller: NewPropeller(),
	}
}

// Apply implements Actor. The body turns to (pitch, combined yaw, bank) and
// moves ForwardDistance along the updated heading; the camera moves by the
// same displacement and swings around the body by HeadingDeltaDeg.
func (s *Scene) Apply(res orientation.TickResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.body.Rotation = Rotation{
		PitchDeg: res.PitchDeg,
		YawDeg:   res.CombinedYawDeg,
		BankDeg:  res.BankDeg,
	}

	step := Forward(res.HeadingDeg).Scale(res.ForwardDistance)
	s.body.Position = s.body.Position.Add(step)
	s.camera.Position = s.camera.Position.Add(step)
	s.camera.Position = rotateAround(s.camera.Position, s.body.Position, res.HeadingDeltaDeg)
	s.camera.OrbitDeg += res.HeadingDeltaDeg

	s.ticks++
	s.travelled += res.ForwardDistance
}

// Frame advances the cosmetic animation. It runs every frame, whether or
// not a reading was applied.
func (s *Scene) Frame() {
	s.mu.Lock()
	s.propeller.Advance()
	s.mu.Unlock()
}

func (s *Scene) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Body:         s.body,
		Camera:       s.camera,
		PropellerDeg: s.propeller.Angle(),
		Ticks:        s.ticks,
		Travelled:    s.travelled,
	}
}
