package emulator

// phase is one segment of the synthetic ride cycle.
type phase struct {
	name     string
	duration int // seconds
	speed    float64
}

// Phases cycles through ride segments with different target speeds and load.
type Phases struct {
	phases []phase
	total  int
}

// NewPhases builds the default flat/incline/rough/dynamics cycle, one minute
// each.
func NewPhases() *Phases {
	p := &Phases{
		phases: []phase{
			{name: "flat", duration: 60, speed: 18.0},
			{name: "incline", duration: 60, speed: 14.0},
			{name: "rough", duration: 60, speed: 12.0},
			{name: "dynamics", duration: 60, speed: 22.0},
		},
	}
	for _, ph := range p.phases {
		p.total += ph.duration
	}
	return p
}

// TargetSpeed returns the phase speed for the given second of the ride.
func (p *Phases) TargetSpeed(tSec int) float64 {
	t := tSec % p.total
	acc := 0
	for _, ph := range p.phases {
		if t < acc+ph.duration {
			return ph.speed
		}
		acc += ph.duration
	}
	return 18.0
}
