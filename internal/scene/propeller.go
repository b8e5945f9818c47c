package scene

const (
	propellerStartDeg = 315
	propellerStepDeg  = 40
)

// Propeller is the spinning-prop counter. It starts at 315°, advances 40°
// per frame and snaps back to 0 once it passes 360°.
type Propeller struct {
	angle int
}

func NewPropeller() *Propeller {
	return &Propeller{angle: propellerStartDeg}
}

// Advance steps the propeller one frame and returns the new angle.
func (p *Propeller) Advance() int {
	p.angle += propellerStepDeg
	if p.angle > 360 {
		p.angle = 0
	}
	return p.angle
}

func (p *Propeller) Angle() int { return p.angle }
