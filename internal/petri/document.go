package petri

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the serialised shape of a net. YAML and JSON are both accepted.
//
//	places:
//	  full: {initial: 15}
//	transitions:
//	  t1: {}
//	arcs:
//	  - {source: full, target: t1, weight: 1}
type Document struct {
	Places      map[string]PlaceDoc      `yaml:"places" json:"places"`
	Transitions map[string]TransitionDoc `yaml:"transitions" json:"transitions"`
	Arcs        []ArcDoc                 `yaml:"arcs" json:"arcs"`
}

type PlaceDoc struct {
	Initial float64 `yaml:"initial" json:"initial"`
	Label   string  `yaml:"label,omitempty" json:"label,omitempty"`
	X       float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty" json:"y,omitempty"`
}

type TransitionDoc struct {
	Label string  `yaml:"label,omitempty" json:"label,omitempty"`
	X     float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty" json:"y,omitempty"`
}

type ArcDoc struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
	Weight *int   `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Parse decodes a YAML or JSON document and builds the net. Places and
// transitions are indexed in lexical id order; a missing arc weight means 1.
func Parse(data []byte) (*Net, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode net document: %w", err)
	}
	return doc.Build()
}

// Load reads and parses a net document from path.
func Load(path string) (*Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	net, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return net, nil
}

func (d *Document) Build() (*Net, error) {
	pids := make([]string, 0, len(d.Places))
	for id := range d.Places {
		pids = append(pids, id)
	}
	sort.Strings(pids)
	places := make([]Place, 0, len(pids))
	for _, id := range pids {
		p := d.Places[id]
		places = append(places, Place{ID: id, Initial: p.Initial, Label: p.Label})
	}

	tids := make([]string, 0, len(d.Transitions))
	for id := range d.Transitions {
		tids = append(tids, id)
	}
	sort.Strings(tids)
	transitions := make([]Transition, 0, len(tids))
	for _, id := range tids {
		transitions = append(transitions, Transition{ID: id, Label: d.Transitions[id].Label})
	}

	arcs := make([]Arc, 0, len(d.Arcs))
	for _, a := range d.Arcs {
		w := 1
		if a.Weight != nil {
			w = *a.Weight
		}
		arcs = append(arcs, Arc{Source: a.Source, Target: a.Target, Weight: w})
	}
	return Build(places, transitions, arcs)
}

// Encode converts a net back into its document form.
func Encode(n *Net) ([]byte, error) {
	doc := Document{
		Places:      make(map[string]PlaceDoc, n.NumPlaces()),
		Transitions: make(map[string]TransitionDoc, n.NumTransitions()),
	}
	for _, p := range n.places {
		doc.Places[p.ID] = PlaceDoc{Initial: p.Initial, Label: p.Label}
	}
	for _, t := range n.transitions {
		doc.Transitions[t.ID] = TransitionDoc{Label: t.Label}
	}
	for _, a := range n.arcs {
		w := a.Weight
		doc.Arcs = append(doc.Arcs, ArcDoc{Source: a.Source, Target: a.Target, Weight: &w})
	}
	return yaml.Marshal(doc)
}
