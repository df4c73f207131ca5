package analysis_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

func mustBuild(b *petri.Builder) *petri.Net {
	net, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	return net
}

func fanOut(source float64, sinks ...string) *petri.Net {
	b := petri.NewBuilder().Place("src", source)
	for _, s := range sinks {
		b.Place("sink_"+s, 0).Transition(s).Arc("src", s, 1).Arc(s, "sink_"+s, 1)
	}
	return mustBuild(b)
}

func solve(net *petri.Net, policy rates.Policy, span dynamo.Span, step dynamo.StepPolicy) *engine.Solution {
	rm, err := rates.For(net, policy)
	Expect(err).NotTo(HaveOccurred())
	sol, err := engine.Solve(context.Background(), net, rm, nil, span, step)
	Expect(err).NotTo(HaveOccurred())
	return sol
}

var _ = Describe("Solution analytics", func() {
	Context("a pure transfer chain", func() {
		var sol *engine.Solution

		BeforeEach(func() {
			net := mustBuild(petri.NewBuilder().
				Place("a", 6).Place("b", 3).Place("c", 1).
				Transition("ab").Transition("bc").Transition("ca").
				Arc("a", "ab", 2).Arc("ab", "b", 2).
				Arc("b", "bc", 1).Arc("bc", "c", 1).
				Arc("c", "ca", 1).Arc("ca", "a", 1))
			sol = solve(net, rates.Uniform{}, dynamo.Span{End: 20}, dynamo.Adaptive(1e-8, 1e-10, 1e-9, 0.5))
		})

		It("conserves the total level at every sample", func() {
			drift, err := analysis.ConservationDrift(sol)
			Expect(err).NotTo(HaveOccurred())
			Expect(drift).To(BeNumerically("<", 1e-9))
		})

		It("extracts identical series on repeated reads", func() {
			first, err := analysis.ExtractSeries(sol, "b")
			Expect(err).NotTo(HaveOccurred())
			first[0] = -1

			again, err := analysis.ExtractSeries(sol, "b")
			Expect(err).NotTo(HaveOccurred())
			third, err := analysis.ExtractSeries(sol, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(third))
			Expect(again[0]).To(Equal(3.0))
			Expect(again).To(HaveLen(sol.Len()))
		})

		It("reports unknown places", func() {
			_, err := analysis.ExtractSeries(sol, "nope")
			Expect(err).To(MatchError(analysis.ErrUnknownPlace))
			_, err = analysis.TerminalValue(sol, "nope")
			Expect(err).To(MatchError(analysis.ErrUnknownPlace))
			_, err = analysis.ConservationDrift(sol, "a", "nope")
			Expect(err).To(MatchError(analysis.ErrUnknownPlace))
		})
	})

	Context("a single source with competing sinks", func() {
		var sol *engine.Solution

		BeforeEach(func() {
			sol = solve(fanOut(9, "x", "y", "z"), rates.Uniform{}, dynamo.Span{End: 5}, dynamo.Fixed(0.05))
		})

		It("depletes the source monotonically", func() {
			src, err := analysis.ExtractSeries(sol, "src")
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(src); i++ {
				Expect(src[i]).To(BeNumerically("<=", src[i-1]))
			}
		})

		It("splits the sinks equally at every sample", func() {
			x, _ := analysis.ExtractSeries(sol, "sink_x")
			y, _ := analysis.ExtractSeries(sol, "sink_y")
			z, _ := analysis.ExtractSeries(sol, "sink_z")
			for i := range x {
				Expect(y[i]).To(BeNumerically("~", x[i], 1e-12))
				Expect(z[i]).To(BeNumerically("~", x[i], 1e-12))
			}
		})

		It("keeps masked-out sinks exactly empty", func() {
			masked := solve(fanOut(9, "x", "y", "z"), rates.SelectionMasked{Selected: rates.Select("x")}, dynamo.Span{End: 5}, dynamo.Fixed(0.05))
			y, _ := analysis.ExtractSeries(masked, "sink_y")
			for _, v := range y {
				Expect(v).To(Equal(0.0))
			}
			x, _ := analysis.TerminalValue(masked, "sink_x")
			Expect(x).To(BeNumerically("~", 9*(1-math.Exp(-5)), 1e-4))
		})
	})

	It("matches the full=15 split scenario", func() {
		net := mustBuild(petri.NewBuilder().
			Place("full", 15).Place("s1", 0).Place("s2", 0).
			Transition("t1").Transition("t2").
			Arc("full", "t1", 1).Arc("t1", "s1", 1).
			Arc("full", "t2", 1).Arc("t2", "s2", 1))
		sol := solve(net, rates.Uniform{}, dynamo.Span{Start: 0, End: 10}, dynamo.Fixed(0.05))

		s1, err := analysis.TerminalValue(sol, "s1")
		Expect(err).NotTo(HaveOccurred())
		s2, _ := analysis.TerminalValue(sol, "s2")
		full, _ := analysis.TerminalValue(sol, "full")

		Expect(s1).To(BeNumerically("~", s2, 1e-3))
		Expect(full).To(BeNumerically("~", 15-(s1+s2), 1e-9))
	})

	It("refuses negative rate constants before solving", func() {
		net := fanOut(1, "x")
		_, err := rates.FromMap(net, map[string]float64{"x": -2}, 1)
		Expect(err).To(MatchError(rates.ErrInvalidRate))
	})
})

var _ = Describe("Hypothetical move scoring", func() {
	var (
		net     *petri.Net
		variant analysis.VariantFunc
		opts    analysis.ScoreOptions
	)

	BeforeEach(func() {
		net = fanOut(10, "a", "b", "c")
		variant = func(c string) (analysis.Variant, error) {
			return analysis.Variant{Net: net, Policy: rates.SelectionMasked{Selected: rates.Select(c)}}, nil
		}
		opts = analysis.ScoreOptions{
			Horizon:   dynamo.Span{End: 10},
			Step:      dynamo.Fixed(0.05),
			Objective: analysis.Objective{Outcome: "sink_a", Opposing: "sink_b"},
			Workers:   2,
		}
	})

	It("scores each candidate by outcome minus opposing", func() {
		scores, err := analysis.ScoreHypotheticalMoves(context.Background(), variant, []string{"a", "b", "c"}, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(scores).To(HaveLen(3))
		Expect(scores["a"]).To(BeNumerically("~", 10, 1e-3))
		Expect(scores["b"]).To(BeNumerically("~", -10, 1e-3))
		Expect(scores["c"]).To(Equal(0.0))
	})

	It("gives a candidate the same score regardless of its companions", func() {
		alone, err := analysis.ScoreHypotheticalMoves(context.Background(), variant, []string{"a"}, opts)
		Expect(err).NotTo(HaveOccurred())
		together, err := analysis.ScoreHypotheticalMoves(context.Background(), variant, []string{"c", "b", "a", "a"}, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(together["a"]).To(Equal(alone["a"]))
		Expect(together).To(HaveLen(3))
	})

	It("propagates variant failures", func() {
		boom := errors.New("boom")
		failing := func(c string) (analysis.Variant, error) {
			if c == "b" {
				return analysis.Variant{}, boom
			}
			return variant(c)
		}
		_, err := analysis.ScoreHypotheticalMoves(context.Background(), failing, []string{"a", "b"}, opts)
		Expect(err).To(MatchError(boom))
	})

	It("propagates cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := analysis.ScoreHypotheticalMoves(ctx, variant, []string{"a", "b"}, opts)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(errors.Is(err, dynamo.ErrCanceled)).To(BeTrue())
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
	})

	It("requires an outcome place", func() {
		opts.Objective = analysis.Objective{}
		_, err := analysis.ScoreHypotheticalMoves(context.Background(), variant, []string{"a"}, opts)
		Expect(err).To(HaveOccurred())
	})

	Describe("Recommend", func() {
		It("orders best first with ties broken by id", func() {
			ranked := analysis.Recommend(map[string]float64{"b": 1, "a": 1, "c": 3, "d": -2})
			Expect(ranked).To(Equal([]analysis.Ranked{
				{ID: "c", Score: 3},
				{ID: "a", Score: 1},
				{ID: "b", Score: 1},
				{ID: "d", Score: -2},
			}))
		})
	})

	Describe("Normalize", func() {
		It("maps scores onto [0, 1]", func() {
			Expect(analysis.Normalize(map[string]float64{"a": 2, "b": 4, "c": 3})).To(Equal(map[string]float64{"a": 0, "b": 1, "c": 0.5}))
		})

		It("maps equal scores to zero", func() {
			Expect(analysis.Normalize(map[string]float64{"a": 7, "b": 7})).To(Equal(map[string]float64{"a": 0, "b": 0}))
		})
	})
})
