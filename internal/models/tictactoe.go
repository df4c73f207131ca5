package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/petri"
)

var (
	ErrBadBoard = errors.New("models: malformed board")
	ErrBadCell  = errors.New("models: unknown cell")
	ErrOccupied = errors.New("models: cell already occupied")
)

type Mark int

const (
	Empty Mark = iota
	X
	O
)

func (m Mark) String() string {
	switch m {
	case X:
		return "x"
	case O:
		return "o"
	default:
		return "."
	}
}

func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is indexed [row][col].
type Board [3][3]Mark

// ParseBoard reads nine cells row by row from x, o and '.', ignoring '/'
// and whitespace. '-' and '_' also mean empty.
func ParseBoard(s string) (Board, error) {
	var b Board
	n := 0
	for _, r := range strings.ToLower(s) {
		var m Mark
		switch r {
		case '/', ' ', '\n', '\t':
			continue
		case 'x':
			m = X
		case 'o':
			m = O
		case '.', '-', '_':
			m = Empty
		default:
			return Board{}, fmt.Errorf("%w: unexpected %q", ErrBadBoard, r)
		}
		if n == 9 {
			return Board{}, fmt.Errorf("%w: more than 9 cells", ErrBadBoard)
		}
		b[n/3][n%3] = m
		n++
	}
	if n != 9 {
		return Board{}, fmt.Errorf("%w: %d cells, want 9", ErrBadBoard, n)
	}
	return b, nil
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < 3; c++ {
			sb.WriteString(b[r][c].String())
		}
	}
	return sb.String()
}

// ToMove is X when both players have the same number of marks, else O.
func (b Board) ToMove() Mark {
	var xs, os int
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			switch b[r][c] {
			case X:
				xs++
			case O:
				os++
			}
		}
	}
	if xs > os {
		return O
	}
	return X
}

// EmptyCells lists the ids of empty cells in row-major order.
func (b Board) EmptyCells() []string {
	var out []string
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if b[r][c] == Empty {
				out = append(out, CellID(r, c))
			}
		}
	}
	return out
}

// Winner returns the mark holding a complete line, or Empty.
func (b Board) Winner() Mark {
	for _, l := range winLines {
		m := b[l.cells[0][0]][l.cells[0][1]]
		if m != Empty && m == b[l.cells[1][0]][l.cells[1][1]] && m == b[l.cells[2][0]][l.cells[2][1]] {
			return m
		}
	}
	return Empty
}

// Play returns a copy of b with m at cell id.
func (b Board) Play(id string, m Mark) (Board, error) {
	r, c, err := ParseCell(id)
	if err != nil {
		return Board{}, err
	}
	if b[r][c] != Empty {
		return Board{}, fmt.Errorf("%w: %s", ErrOccupied, id)
	}
	b[r][c] = m
	return b, nil
}

// CellID names the cell at row r, column c, e.g. "11" for the center.
func CellID(r, c int) string { return fmt.Sprintf("%d%d", r, c) }

func ParseCell(id string) (int, int, error) {
	if len(id) != 2 || id[0] < '0' || id[0] > '2' || id[1] < '0' || id[1] > '2' {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadCell, id)
	}
	return int(id[0] - '0'), int(id[1] - '0'), nil
}

type winLine struct {
	name  string
	cells [3][2]int
}

var winLines = []winLine{
	{"row0", [3][2]int{{0, 0}, {0, 1}, {0, 2}}},
	{"row1", [3][2]int{{1, 0}, {1, 1}, {1, 2}}},
	{"row2", [3][2]int{{2, 0}, {2, 1}, {2, 2}}},
	{"col0", [3][2]int{{0, 0}, {1, 0}, {2, 0}}},
	{"col1", [3][2]int{{0, 1}, {1, 1}, {2, 1}}},
	{"col2", [3][2]int{{0, 2}, {1, 2}, {2, 2}}},
	{"diag", [3][2]int{{0, 0}, {1, 1}, {2, 2}}},
	{"anti", [3][2]int{{0, 2}, {1, 1}, {2, 0}}},
}

// Place ids of the tic-tac-toe net.
const (
	PlaceXTurn = "XTurn"
	PlaceOTurn = "OTurn"
	PlaceWinX  = "WinX"
	PlaceWinO  = "WinO"
)

func cellPlace(prefix string, r, c int) string { return prefix + CellID(r, c) }

// TicTacToe builds the game net for board b with toMove holding the turn
// token. Cell places P, X and O hold 1 for empty, x and o cells. PlayX_rc
// consumes P_rc and XTurn and produces X_rc and OTurn (and symmetrically for
// O). Each line has a win transition per player that reads the three pieces
// and produces WinX or WinO.
func TicTacToe(b Board, toMove Mark) (*petri.Net, error) {
	if toMove != X && toMove != O {
		return nil, fmt.Errorf("%w: no player to move", ErrBadBoard)
	}
	nb := petri.NewBuilder()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			nb.Place(cellPlace("P", r, c), indicator(b[r][c] == Empty)).
				Place(cellPlace("X", r, c), indicator(b[r][c] == X)).
				Place(cellPlace("O", r, c), indicator(b[r][c] == O))
		}
	}
	nb.Place(PlaceXTurn, indicator(toMove == X)).
		Place(PlaceOTurn, indicator(toMove == O)).
		Place(PlaceWinX, 0).
		Place(PlaceWinO, 0)

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			px, po := "PlayX_"+CellID(r, c), "PlayO_"+CellID(r, c)
			nb.Transition(px).
				Arc(cellPlace("P", r, c), px, 1).
				Arc(PlaceXTurn, px, 1).
				Arc(px, cellPlace("X", r, c), 1).
				Arc(px, PlaceOTurn, 1)
			nb.Transition(po).
				Arc(cellPlace("P", r, c), po, 1).
				Arc(PlaceOTurn, po, 1).
				Arc(po, cellPlace("O", r, c), 1).
				Arc(po, PlaceXTurn, 1)
		}
	}

	for _, l := range winLines {
		for _, side := range []struct{ piece, win string }{{"X", PlaceWinX}, {"O", PlaceWinO}} {
			t := side.win + "_" + l.name
			nb.Transition(t)
			for _, cell := range l.cells {
				nb.ReadArc(cellPlace(side.piece, cell[0], cell[1]), t, 1)
			}
			nb.Arc(t, side.win, 1)
		}
	}
	return nb.Build()
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// TicTacToeObjective scores from player's side: its win place minus the
// opponent's.
func TicTacToeObjective(player Mark) analysis.Objective {
	if player == O {
		return analysis.Objective{Outcome: PlaceWinO, Opposing: PlaceWinX}
	}
	return analysis.Objective{Outcome: PlaceWinX, Opposing: PlaceWinO}
}

// TicTacToeVariant returns the variant for player moving to a candidate cell.
func TicTacToeVariant(b Board, player Mark) analysis.VariantFunc {
	return func(cell string) (analysis.Variant, error) {
		nb, err := b.Play(cell, player)
		if err != nil {
			return analysis.Variant{}, err
		}
		net, err := TicTacToe(nb, player.Opponent())
		if err != nil {
			return analysis.Variant{}, err
		}
		return analysis.Variant{Net: net}, nil
	}
}

// TicTacToeHeatmap scores every empty cell for the player to move on b.
// opts.Objective is replaced by that player's objective.
func TicTacToeHeatmap(ctx context.Context, b Board, opts analysis.ScoreOptions) (map[string]float64, error) {
	player := b.ToMove()
	opts.Objective = TicTacToeObjective(player)
	return analysis.ScoreHypotheticalMoves(ctx, TicTacToeVariant(b, player), b.EmptyCells(), opts)
}
