package engine

import (
	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/petri"
)

// Solution is the sampled result of a solve: parallel Times and States in
// increasing time order, the first sample being the span start and the
// initial state. Treat it as read-only; it may be shared between readers.
type Solution struct {
	net      *petri.Net
	Times    []float64
	States   []dynamo.State
	Accepted int
	Rejected int
}

func newSolution(net *petri.Net, traj *dynamo.Trajectory) *Solution {
	return &Solution{
		net:      net,
		Times:    traj.Times,
		States:   traj.States,
		Accepted: traj.Accepted,
		Rejected: traj.Rejected,
	}
}

// NewSolution wraps externally produced samples, e.g. ones read back from an
// export, for use with the analysis functions.
func NewSolution(net *petri.Net, times []float64, states []dynamo.State) *Solution {
	return &Solution{net: net, Times: times, States: states, Accepted: max(len(times)-1, 0)}
}

// Net is the model the solution was computed for.
func (s *Solution) Net() *petri.Net { return s.net }

func (s *Solution) Len() int { return len(s.Times) }

// At returns sample i keyed by place id.
func (s *Solution) At(i int) map[string]float64 {
	return s.net.StateMap(s.States[i])
}

func (s *Solution) Final() dynamo.State {
	if len(s.States) == 0 {
		return nil
	}
	return s.States[len(s.States)-1]
}

// Span is the covered time range.
func (s *Solution) Span() dynamo.Span {
	if len(s.Times) == 0 {
		return dynamo.Span{}
	}
	return dynamo.Span{Start: s.Times[0], End: s.Times[len(s.Times)-1]}
}
