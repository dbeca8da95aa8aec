package attachment

// Outcome classifies a single workflow step
type Outcome int

const (
	// Succeeded means the step did what it was asked to
	Succeeded Outcome = iota
	// Ignored means the step failed and the failure was swallowed
	Ignored
	// Fatal means the step failed and aborted the operation
	Fatal
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Ignored:
		return "ignored"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Step is one action taken by the workflow
type Step struct {
	Name    string
	Target  string
	Outcome Outcome
	Err     error
}

// Report lists every step of one workflow call
type Report struct {
	// URL is the public URL of a newly attached image
	URL string
	// Filename is the staged filename of a newly attached image
	Filename string
	Steps    []Step
}

// Ignored returns the steps whose failures were swallowed
func (r *Report) Ignored() []Step {
	return r.filter(Ignored)
}

// Fatal returns the first fatal step, if any
func (r *Report) Fatal() (Step, bool) {
	steps := r.filter(Fatal)
	if len(steps) == 0 {
		return Step{}, false
	}
	return steps[0], true
}

// Merge appends the steps of other
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Steps = append(r.Steps, other.Steps...)
}

func (r *Report) filter(o Outcome) []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Outcome == o {
			out = append(out, s)
		}
	}
	return out
}

func (r *Report) ok(name, target string) {
	r.Steps = append(r.Steps, Step{Name: name, Target: target, Outcome: Succeeded})
}

func (r *Report) ignore(name, target string, err error) {
	r.Steps = append(r.Steps, Step{Name: name, Target: target, Outcome: Ignored, Err: err})
}

func (r *Report) fatal(name, target string, err error) {
	r.Steps = append(r.Steps, Step{Name: name, Target: target, Outcome: Fatal, Err: err})
}
