package sim

import (
	"sync"

	"github.com/san-kum/petrode/internal/dynamo"
)

type resetter interface {
	Reset()
}

// StepperPool recycles steppers, and their stage scratch, across runs.
type StepperPool struct {
	pool sync.Pool
}

func NewStepperPool(newStepper func() dynamo.AdaptiveStepper) *StepperPool {
	return &StepperPool{
		pool: sync.Pool{
			New: func() interface{} {
				return newStepper()
			},
		},
	}
}

func (p *StepperPool) Get() dynamo.AdaptiveStepper {
	return p.pool.Get().(dynamo.AdaptiveStepper)
}

func (p *StepperPool) Put(s dynamo.AdaptiveStepper) {
	if r, ok := s.(resetter); ok {
		r.Reset()
	}
	p.pool.Put(s)
}
