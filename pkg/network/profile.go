package network

import (
	"time"

	"github.com/charmbracelet/log"
)

// Phase is one named construction step with the wall-clock time spent
// since the previous checkpoint.
type Phase struct {
	Name    string
	Elapsed time.Duration
}

// Profiler records wall-clock deltas between named construction phases.
// The zero value is not usable; use NewProfiler.
type Profiler struct {
	phases []Phase
	last   time.Time
	now    func() time.Time
}

// NewProfiler creates a profiler with its clock started.
func NewProfiler() *Profiler {
	p := &Profiler{now: time.Now}
	p.last = p.now()
	return p
}

// Checkpoint records the elapsed time since the previous checkpoint (or
// since creation) under the given phase name.
func (p *Profiler) Checkpoint(name string) {
	t := p.now()
	p.phases = append(p.phases, Phase{Name: name, Elapsed: t.Sub(p.last)})
	p.last = t
}

// Phases returns the recorded phases in order.
func (p *Profiler) Phases() []Phase {
	out := make([]Phase, len(p.phases))
	copy(out, p.phases)
	return out
}

// LogTo writes the recorded timings to the logger at debug level.
func (p *Profiler) LogTo(logger *log.Logger) {
	for _, ph := range p.phases {
		logger.Debug("build phase", "phase", ph.Name, "elapsed", ph.Elapsed.Round(time.Microsecond))
	}
}
