// Package viz renders solutions and move scores in the terminal.
//
//   - [PlotSeries]: asciigraph line chart of selected places over time
//   - [PhasePortrait]: Braille plot of one place against another
//   - [Heatmap]: tic-tac-toe board shaded by normalized move score
//   - [Ranking]: ordered candidate table with score bars
//   - [Player]: Bubble Tea model that replays a solution sample by sample
//
// # Player Key Bindings
//
//	Space - Pause/Resume playback
//	←/→   - Step one sample back/forward
//	+/-   - Change playback speed
//	R     - Rewind to the first sample
//	Q     - Quit
package viz
