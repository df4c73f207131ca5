package petri

// Builder accumulates places, transitions and arcs in declaration order.
type Builder struct {
	places      []Place
	transitions []Transition
	arcs        []Arc
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Place(id string, initial float64) *Builder {
	b.places = append(b.places, Place{ID: id, Initial: initial})
	return b
}

func (b *Builder) Transition(id string) *Builder {
	b.transitions = append(b.transitions, Transition{ID: id})
	return b
}

func (b *Builder) Arc(source, target string, weight int) *Builder {
	b.arcs = append(b.arcs, Arc{Source: source, Target: target, Weight: weight})
	return b
}

// ReadArc adds the consuming and producing arc pair that makes place a
// catalyst of transition.
func (b *Builder) ReadArc(place, transition string, weight int) *Builder {
	return b.Arc(place, transition, weight).Arc(transition, place, weight)
}

// SetInitial overrides the initial level of an already declared place.
// It reports whether the place was found.
func (b *Builder) SetInitial(id string, initial float64) bool {
	for i := range b.places {
		if b.places[i].ID == id {
			b.places[i].Initial = initial
			return true
		}
	}
	return false
}

// Clone returns an independent copy so variants can diverge.
func (b *Builder) Clone() *Builder {
	return &Builder{
		places:      append([]Place(nil), b.places...),
		transitions: append([]Transition(nil), b.transitions...),
		arcs:        append([]Arc(nil), b.arcs...),
	}
}

func (b *Builder) Build() (*Net, error) {
	return Build(b.places, b.transitions, b.arcs)
}
