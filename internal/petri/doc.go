// Package petri models continuous Petri nets.
//
// A [Net] is built once from places, transitions and weighted arcs and is
// immutable afterwards, so it can be shared by any number of concurrent
// simulation runs. String ids are resolved to dense indices at build time:
//
//	net, err := petri.NewBuilder().
//		Place("full", 15).
//		Place("s1", 0).
//		Transition("t1").
//		Arc("full", "t1", 1).
//		Arc("t1", "s1", 1).
//		Build()
//
// A consuming arc p->t and a producing arc t->p of equal weight form a read
// arc: p takes part in t's firing rate but t never changes p's level.
package petri
