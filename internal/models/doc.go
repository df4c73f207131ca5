// Package models builds the demo nets: a 0/1 knapsack, tic-tac-toe, and two
// small reaction networks used as references.
//
// The knapsack and tic-tac-toe models also provide hypothetical-move variants
// for [analysis.ScoreHypotheticalMoves]: each candidate move produces a fresh
// net with that move already made.
package models
