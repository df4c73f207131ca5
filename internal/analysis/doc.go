// Package analysis reads results off solved nets.
//
// The package includes:
//
//   - [ExtractSeries]: one place's level at every sample
//   - [TerminalValue]: one place's level at the end of the horizon
//   - [ScoreHypotheticalMoves]: solve one net variant per candidate move and
//     score each by its terminal outcome
//   - [Recommend]: rank scores for greedy selection
//   - [Normalize]: scale scores into [0, 1] for heatmaps
//   - [ConservationDrift]: worst deviation of the total level from its start
//
// # Heatmaps
//
// Every candidate is solved independently, on its own net and rate map, so
// candidates are fanned out over a worker pool:
//
//	scores, err := analysis.ScoreHypotheticalMoves(ctx, variant, cells, analysis.ScoreOptions{
//	    Horizon:   dynamo.Span{End: 10},
//	    Step:      dynamo.Fixed(0.05),
//	    Objective: analysis.Objective{Outcome: "WinX", Opposing: "WinO"},
//	})
package analysis
