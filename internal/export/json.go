package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/petrode/internal/engine"
)

// Meta describes how a solution was produced.
type Meta struct {
	Model  string `json:"model,omitempty"`
	Policy string `json:"policy,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

type Document struct {
	Meta     Meta        `json:"meta"`
	Places   []string    `json:"places"`
	Steps    int         `json:"steps"`
	Accepted int         `json:"accepted"`
	Rejected int         `json:"rejected"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
}

func NewDocument(sol *engine.Solution, meta Meta) Document {
	doc := Document{
		Meta:     meta,
		Places:   sol.Net().PlaceIDs(),
		Steps:    sol.Len(),
		Accepted: sol.Accepted,
		Rejected: sol.Rejected,
		Times:    sol.Times,
		States:   make([][]float64, len(sol.States)),
	}
	for i, s := range sol.States {
		doc.States[i] = s
	}
	return doc
}

func WriteJSON(w io.Writer, sol *engine.Solution, meta Meta) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(sol, meta))
}

func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Times) != len(doc.States) {
		return nil, fmt.Errorf("%w: %d times for %d states", ErrMalformed, len(doc.Times), len(doc.States))
	}
	return &doc, nil
}
