package integrators

import (
	"math"

	"github.com/san-kum/petrode/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	// 5th minus 4th order weights.
	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DormandPrince is an explicit embedded Runge-Kutta 5(4) stepper with the
// first-same-as-last property.
//
// It keeps stage scratch between calls and is not safe for concurrent use;
// give each run its own instance (see sim.Solver).
type DormandPrince struct {
	safety   float64
	minScale float64
	maxScale float64

	k1, k2, k3, k4, k5, k6, k7 dynamo.State
	scratch                    dynamo.State

	// FSAL cache: k7 of the last step is k1 of the next one when the caller
	// continues from the state we returned.
	last      dynamo.State
	fsalValid bool
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *DormandPrince) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.k5 = make(dynamo.State, n)
		r.k6 = make(dynamo.State, n)
		r.k7 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
		r.fsalValid = false
	}
}

// Reset drops the FSAL cache.
func (r *DormandPrince) Reset() {
	r.fsalValid = false
	r.last = nil
}

func derive(sys dynamo.System, dst, x dynamo.State, t float64) {
	if ip, ok := sys.(dynamo.InPlaceSystem); ok {
		ip.DeriveInto(dst, x, t)
		return
	}
	copy(dst, sys.Derive(x, t))
}

func finite(s dynamo.State) bool {
	return s.IsValid()
}

// stages evaluates all seven stages and returns the 5th order solution.
func (r *DormandPrince) stages(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	if r.fsalValid && sameBacking(r.last, x) {
		copy(r.k1, r.k7)
	} else {
		derive(sys, r.k1, x, t)
	}
	if !finite(r.k1) {
		return nil, dynamo.ErrNonFinite
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*b21*r.k1[i]
	}
	derive(sys, r.k2, r.scratch, t+a2*dt)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b31*r.k1[i]+b32*r.k2[i])
	}
	derive(sys, r.k3, r.scratch, t+a3*dt)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b41*r.k1[i]+b42*r.k2[i]+b43*r.k3[i])
	}
	derive(sys, r.k4, r.scratch, t+a4*dt)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b51*r.k1[i]+b52*r.k2[i]+b53*r.k3[i]+b54*r.k4[i])
	}
	derive(sys, r.k5, r.scratch, t+a5*dt)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b61*r.k1[i]+b62*r.k2[i]+b63*r.k3[i]+b64*r.k4[i]+b65*r.k5[i])
	}
	derive(sys, r.k6, r.scratch, t+dt)

	if !finite(r.k2) || !finite(r.k3) || !finite(r.k4) || !finite(r.k5) || !finite(r.k6) {
		return nil, dynamo.ErrNonFinite
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*r.k1[i]+c3*r.k3[i]+c4*r.k4[i]+c5*r.k5[i]+c6*r.k6[i])
	}
	if !finite(xNew) {
		return nil, dynamo.ErrNonFinite
	}

	derive(sys, r.k7, xNew, t+dt)
	if !finite(r.k7) {
		return nil, dynamo.ErrNonFinite
	}
	return xNew, nil
}

// commit arms the FSAL cache after the caller accepted xNew.
func (r *DormandPrince) commit(xNew dynamo.State) {
	r.last = xNew
	r.fsalValid = true
}

// Step advances x by dt without error control.
func (r *DormandPrince) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	xNew, err := r.stages(sys, x, t, dt)
	if err != nil {
		r.fsalValid = false
		return nil, err
	}
	r.commit(xNew)
	return xNew, nil
}

// StepAdaptive attempts a step and reports the weighted RMS error norm
//
//	sqrt(mean((err_i / (atol + rtol*max(|x_i|, |xNew_i|)))^2))
//
// along with the next step size. A rejected attempt (ErrNorm > 1) leaves the
// FSAL cache untouched so the retry from x reuses k1.
func (r *DormandPrince) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt float64, tol dynamo.Tolerance) (dynamo.StepResult, error) {
	fsal := r.fsalValid && sameBacking(r.last, x)

	xNew, err := r.stages(sys, x, t, dt)
	if err != nil {
		r.fsalValid = false
		return dynamo.StepResult{}, err
	}

	n := len(x)
	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*r.k1[i] + dc3*r.k3[i] + dc4*r.k4[i] + dc5*r.k5[i] + dc6*r.k6[i] + dc7*r.k7[i])
		scale := tol.Abs + tol.Rel*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		if scale == 0 {
			scale = math.SmallestNonzeroFloat64
		}
		e := errEst / scale
		sum += e * e
	}
	errNorm := 0.0
	if n > 0 {
		errNorm = math.Sqrt(sum / float64(n))
	}
	if math.IsNaN(errNorm) {
		r.fsalValid = false
		return dynamo.StepResult{}, dynamo.ErrNonFinite
	}

	var dtNew float64
	switch {
	case errNorm > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.25))
	case errNorm > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
	default:
		dtNew = dt * r.maxScale
	}

	if errNorm <= 1 {
		r.commit(xNew)
	} else if fsal {
		// k7 was overwritten by the rejected attempt; k1 still holds f(x).
		copy(r.k7, r.k1)
	} else {
		r.fsalValid = false
	}

	return dynamo.StepResult{X: xNew, ErrNorm: errNorm, NextDt: dtNew}, nil
}

func sameBacking(a, b dynamo.State) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
