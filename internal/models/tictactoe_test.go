package models

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/dynamo"
)

func TestParseBoard(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: ".........", want: ".../.../..."},
		{in: "x.o/.x./..o", want: "x.o/.x./..o"},
		{in: "X-O\n_X_\n--O", want: "x.o/.x./..o"},
		{in: "x.o", wantErr: true},
		{in: "..........", wantErr: true},
		{in: "....z....", wantErr: true},
	}
	for _, tt := range tests {
		b, err := ParseBoard(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrBadBoard) {
				t.Errorf("ParseBoard(%q): expected ErrBadBoard, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseBoard(%q) failed: %v", tt.in, err)
		}
		if got := b.String(); got != tt.want {
			t.Errorf("ParseBoard(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBoardRules(t *testing.T) {
	b, _ := ParseBoard("xxx/oo./...")
	if b.Winner() != X {
		t.Errorf("expected x to win, got %v", b.Winner())
	}
	if b.ToMove() != O {
		t.Errorf("expected o to move, got %v", b.ToMove())
	}

	empty := Board{}
	if empty.ToMove() != X || empty.Winner() != Empty {
		t.Error("expected x to open an empty board with no winner")
	}
	if got := len(empty.EmptyCells()); got != 9 {
		t.Errorf("expected 9 empty cells, got %d", got)
	}

	if _, err := b.Play("00", O); !errors.Is(err, ErrOccupied) {
		t.Errorf("expected ErrOccupied, got %v", err)
	}
	if _, err := b.Play("33", O); !errors.Is(err, ErrBadCell) {
		t.Errorf("expected ErrBadCell, got %v", err)
	}
	nb, err := b.Play("22", O)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if nb[2][2] != O || b[2][2] != Empty {
		t.Error("Play must return a modified copy")
	}
}

func TestTicTacToeNet(t *testing.T) {
	b, _ := ParseBoard("x../.o./...")
	net, err := TicTacToe(b, X)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if got, want := net.NumPlaces(), 9*3+4; got != want {
		t.Errorf("expected %d places, got %d", want, got)
	}
	if got, want := net.NumTransitions(), 9*2+8*2; got != want {
		t.Errorf("expected %d transitions, got %d", want, got)
	}

	levels := net.StateMap(net.InitialState())
	want := map[string]float64{"P00": 0, "X00": 1, "O11": 1, "P22": 1, "XTurn": 1, "OTurn": 0}
	for id, v := range want {
		if levels[id] != v {
			t.Errorf("%s = %v, want %v", id, levels[id], v)
		}
	}

	ti, _ := net.TransitionIndex("WinX_diag")
	if got := len(net.ReadPlaces(ti)); got != 3 {
		t.Errorf("expected win transition to read 3 pieces, got %d", got)
	}
	if effects := net.KineticsOf(ti).Effects; len(effects) != 1 {
		t.Errorf("expected win transition to only produce WinX, got %v", effects)
	}

	if _, err := TicTacToe(b, Empty); !errors.Is(err, ErrBadBoard) {
		t.Errorf("expected ErrBadBoard without a player to move, got %v", err)
	}
}

func TestTicTacToeHeatmapOpening(t *testing.T) {
	scores, err := TicTacToeHeatmap(context.Background(), Board{}, analysis.ScoreOptions{
		Horizon: dynamo.Span{End: 10},
		Step:    dynamo.Fixed(0.05),
	})
	if err != nil {
		t.Fatalf("heatmap failed: %v", err)
	}
	if len(scores) != 9 {
		t.Fatalf("expected 9 scores, got %d", len(scores))
	}

	center := scores["11"]
	for _, corner := range []string{"00", "02", "20", "22"} {
		for _, edge := range []string{"01", "10", "12", "21"} {
			if !(center > scores[corner] && scores[corner] > scores[edge]) {
				t.Fatalf("expected center > corner > edge, got center=%.4f %s=%.4f %s=%.4f",
					center, corner, scores[corner], edge, scores[edge])
			}
		}
	}
	if d := scores["00"] - scores["22"]; d > 1e-9 || d < -1e-9 {
		t.Errorf("expected symmetric corners, got %v and %v", scores["00"], scores["22"])
	}
}

func TestTicTacToeHeatmapSkipsOccupied(t *testing.T) {
	b, _ := ParseBoard("x../.o./...")
	scores, err := TicTacToeHeatmap(context.Background(), b, analysis.ScoreOptions{
		Horizon: dynamo.Span{End: 2},
		Step:    dynamo.Fixed(0.1),
	})
	if err != nil {
		t.Fatalf("heatmap failed: %v", err)
	}
	var got []string
	for id := range scores {
		got = append(got, id)
	}
	if diff := cmp.Diff(b.EmptyCells(), got, sortStrings); diff != "" {
		t.Errorf("scored cells mismatch (-want +got):\n%s", diff)
	}
}

func TestTicTacToeObjective(t *testing.T) {
	if got := TicTacToeObjective(O); got != (analysis.Objective{Outcome: PlaceWinO, Opposing: PlaceWinX}) {
		t.Errorf("unexpected objective for o: %+v", got)
	}
}
