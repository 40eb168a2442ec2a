package autopilot

import "github.com/a-bouts/nav-watch/latlon"

// HeadingTransition is an eased turn of the target heading, advanced one
// step per scheduler tick.
type HeadingTransition struct {
	FromDeg    float64 `json:"from"`
	ToDeg      float64 `json:"to"`
	StepIndex  int     `json:"step"`
	TotalSteps int     `json:"totalSteps"`
}

func (h *HeadingTransition) done() bool {
	return h.StepIndex >= h.TotalSteps
}

// heading is the target heading at the current step, turning along the
// shortest way round.
func (h *HeadingTransition) heading() float64 {
	if h.TotalSteps <= 0 || h.done() {
		return latlon.NormalizeHeading(h.ToDeg)
	}
	x := easeInOut(float64(h.StepIndex) / float64(h.TotalSteps))
	return latlon.NormalizeHeading(h.FromDeg + latlon.HeadingDelta(h.FromDeg, h.ToDeg)*x)
}

func easeInOut(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	if x < 0.5 {
		return 4 * x * x * x
	}
	y := -2*x + 2
	return 1 - y*y*y/2
}
