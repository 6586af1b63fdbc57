package chessgame

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/walterschell/chessbot/chessrules"
)

func newGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	g, err := NewGame(opts...)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func mustMove(t *testing.T, g *Game, id, target string) MoveResult {
	t.Helper()
	res, err := g.AttemptMove(id, target, "")
	if err != nil {
		t.Fatalf("AttemptMove(%s, %s): %v", id, target, err)
	}
	return res
}

func TestAttemptMoveErrors(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		target    string
		promotion string
		want      error
	}{
		{"unknown piece", "X9_W", "E4", "", ErrUnknownOrDeadPiece},
		{"unknown piece before bad square", "X9_W", "Z9", "", ErrUnknownOrDeadPiece},
		{"wrong side", "P5_B", "E5", "", ErrWrongSideToMove},
		{"wrong side before bad square", "P5_B", "??", "", ErrWrongSideToMove},
		{"bad square", "P5_W", "Z9", "", ErrInvalidSquareText},
		{"bad promotion", "P5_W", "E4", "king", ErrInvalidPromotionChoice},
		{"illegal target", "P5_W", "E5", "", ErrIllegalTarget},
		{"blocked knight", "N1_W", "D2", "", ErrIllegalTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGame(t)
			before := g.FEN()
			_, err := g.AttemptMove(tt.id, tt.target, tt.promotion)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if g.FEN() != before || len(g.History()) != 0 {
				t.Errorf("failed move changed the game: %s", g.FEN())
			}
		})
	}
}

func TestAttemptMoveDeadPiece(t *testing.T) {
	g := newGame(t, WithPosition("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1"))
	mustMove(t, g, "P5_W", "D5")
	mustMove(t, g, "K_B", "E7")
	if _, err := g.AttemptMove("P4_B", "D4", ""); !errors.Is(err, ErrUnknownOrDeadPiece) {
		t.Errorf("error = %v, want ErrUnknownOrDeadPiece", err)
	}
}

func TestAttemptMoveRecordsPly(t *testing.T) {
	g := newGame(t)
	res := mustMove(t, g, "P5_W", " e4 ")
	want := Ply{
		Number:  1,
		Side:    chessrules.White,
		PieceID: "P5_W",
		Kind:    chessrules.Pawn,
		From:    chessrules.Sq(4, 1),
		To:      chessrules.Sq(4, 3),
		UCI:     "e2e4",
		FEN:     "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	}
	if res.Ply != want {
		t.Errorf("ply = %+v\nwant %+v", res.Ply, want)
	}
	if res.Status.Terminal() || res.Check {
		t.Errorf("unexpected result %+v", res)
	}
	if g.SideToMove() != chessrules.Black || g.FullmoveNumber() != 1 || g.HalfmoveClock() != 0 {
		t.Errorf("counters: side=%v full=%d half=%d", g.SideToMove(), g.FullmoveNumber(), g.HalfmoveClock())
	}
}

func TestFoolsMateSession(t *testing.T) {
	g := newGame(t)
	mustMove(t, g, "P6_W", "F3")
	mustMove(t, g, "P5_B", "E5")
	mustMove(t, g, "P7_W", "G4")
	res := mustMove(t, g, "Q_B", "H4")
	if res.Status.Kind != chessrules.Checkmate || res.Status.Winner != chessrules.Black || !res.Check {
		t.Fatalf("result = %+v", res)
	}
	if !g.IsInCheck(chessrules.White) {
		t.Error("White should be in check")
	}
	if _, err := g.AttemptMove("P1_W", "A3", ""); !errors.Is(err, ErrGameAlreadyTerminal) {
		t.Errorf("error = %v, want ErrGameAlreadyTerminal", err)
	}
	if _, ok := g.Hint(); ok {
		t.Error("hint offered after checkmate")
	}
}

func TestCastlingSession(t *testing.T) {
	g := newGame(t, WithPosition("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"))
	res := mustMove(t, g, "K_W", "G1")
	if res.Ply.Castle != "kingside" || res.Ply.UCI != "e1g1" {
		t.Errorf("ply = %+v", res.Ply)
	}
}

func TestPromotionChoice(t *testing.T) {
	g := newGame(t, WithPosition("8/P6k/8/8/8/8/8/4K3 w - - 0 1"))
	res, err := g.AttemptMove("P1_W", "A8", "n")
	if err != nil {
		t.Fatal(err)
	}
	if res.Ply.Promotion != "knight" || res.Ply.UCI != "a7a8n" {
		t.Errorf("ply = %+v", res.Ply)
	}
	if pc, _ := g.Position().Piece("P1_W"); pc.Kind != chessrules.Knight {
		t.Errorf("kind = %v", pc.Kind)
	}
}

func TestLegalMoves(t *testing.T) {
	g := newGame(t)
	if got := g.LegalMoves("N1_W"); len(got) != 2 {
		t.Errorf("knight moves = %v", got)
	}
	if got := g.LegalMoves("nope"); got == nil || len(got) != 0 {
		t.Errorf("unknown piece moves = %#v, want empty", got)
	}
}

func TestMaterial(t *testing.T) {
	g := newGame(t)
	if g.EvaluatePosition() != 0 {
		t.Errorf("start balance = %d", g.EvaluatePosition())
	}
	if got := g.MaterialValue(chessrules.White); got != 8*100+2*320+2*330+2*500+900+20000 {
		t.Errorf("white material = %d", got)
	}
	g = newGame(t, WithPosition("4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1"))
	mustMove(t, g, "P5_W", "D5")
	if g.EvaluatePosition() != 100 {
		t.Errorf("balance after capture = %d", g.EvaluatePosition())
	}
	if c := g.Captured(); len(c) != 1 || c[0].ID != "P4_B" {
		t.Errorf("captured = %v", c)
	}
}

func TestPlayAI(t *testing.T) {
	t.Run("no AI", func(t *testing.T) {
		g := newGame(t)
		if _, err := g.PlayAI(); !errors.Is(err, ErrNoAI) {
			t.Errorf("error = %v, want ErrNoAI", err)
		}
	})

	t.Run("turns", func(t *testing.T) {
		g := newGame(t, WithAI(chessrules.Black, Easy))
		if _, err := g.PlayAI(); !errors.Is(err, ErrNotAITurn) {
			t.Fatalf("error = %v, want ErrNotAITurn", err)
		}
		mustMove(t, g, "P5_W", "E4")
		if !g.AITurn() {
			t.Fatal("computer should be due to move")
		}
		ai, err := g.PlayAI()
		if err != nil {
			t.Fatal(err)
		}
		if ai.Ply.Side != chessrules.Black || ai.Info.Depth != 2 || ai.Info.Difficulty != Easy || ai.Info.Nodes == 0 {
			t.Errorf("ai move = %+v", ai)
		}
		if g.SideToMove() != chessrules.White || len(g.History()) != 2 {
			t.Errorf("side=%v plies=%d", g.SideToMove(), len(g.History()))
		}
	})

	t.Run("finds mate", func(t *testing.T) {
		g := newGame(t, WithPosition("rn1qkbnr/pbpp1ppp/1p6/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 0 1"), WithAI(chessrules.White, Easy))
		ai, err := g.PlayAI()
		if err != nil {
			t.Fatal(err)
		}
		if ai.Status.Kind != chessrules.Checkmate {
			t.Errorf("status = %v after %+v", ai.Status, ai.Ply)
		}
	})

	t.Run("bad difficulty", func(t *testing.T) {
		if _, err := NewGame(WithAI(chessrules.Black, 9)); !errors.Is(err, ErrInvalidDifficulty) {
			t.Errorf("error = %v", err)
		}
	})
}

func TestHint(t *testing.T) {
	g := newGame(t)
	s, ok := g.Hint()
	if !ok {
		t.Fatal("no hint")
	}
	found := false
	for _, sq := range g.LegalMoves(s.PieceID) {
		found = found || sq == s.To
	}
	if !found {
		t.Errorf("hint %+v is not legal", s)
	}
	b, ok := g.BestMoveSuggestion(chessrules.Black, HintDepth)
	if !ok || b.To != s.To || b.Score != -s.Score {
		t.Errorf("suggestion for Black = %+v, hint %+v", b, s)
	}
}

func TestResign(t *testing.T) {
	g := newGame(t)
	if err := g.Resign(chessrules.White); err != nil {
		t.Fatal(err)
	}
	if st := g.Status(); st.Kind != chessrules.Resignation || st.Winner != chessrules.Black {
		t.Errorf("status = %v", st)
	}
	if err := g.Resign(chessrules.Black); !errors.Is(err, ErrGameAlreadyTerminal) {
		t.Errorf("error = %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", Easy, false},
		{"Hard", Hard, false},
		{"5", Expert, false},
		{"1", 1, false},
		{"", Medium, false},
		{"0", 0, true},
		{"6", 0, true},
		{"grandmaster", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState(t *testing.T) {
	g := newGame(t, WithAI(chessrules.Black, Medium))
	mustMove(t, g, "P5_W", "E4")
	s := g.State()
	if s.Board[7][4] == nil || s.Board[7][4].ID != "K_W" {
		t.Errorf("E1 = %+v", s.Board[7][4])
	}
	if s.Board[4][4] == nil || s.Board[4][4].ID != "P5_W" {
		t.Errorf("E4 = %+v", s.Board[4][4])
	}
	if s.Board[6][4] != nil {
		t.Errorf("E2 should be empty: %+v", s.Board[6][4])
	}
	if s.EnPassant == nil || *s.EnPassant != chessrules.Sq(4, 2) {
		t.Errorf("en passant = %v", s.EnPassant)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"currentTurn":"black"`,
		`"status":{"kind":"in_progress"}`,
		`"aiSide":"black"`,
		`"aiDifficulty":3`,
		`"type":"king"`,
		`"enPassant":"E3"`,
		`"capturedPieces":[]`,
	} {
		if !strings.Contains(string(b), want) {
			t.Errorf("state JSON missing %s", want)
		}
	}
}

func TestStateWinner(t *testing.T) {
	g := newGame(t, WithPosition("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"))
	if s := g.State(); !s.GameOver || s.Winner != "draw" {
		t.Errorf("state = gameOver %v winner %q", s.GameOver, s.Winner)
	}
	g = newGame(t)
	_ = g.Resign(chessrules.Black)
	if s := g.State(); s.Winner != "white" {
		t.Errorf("winner = %q", s.Winner)
	}
}

func TestPlayUCI(t *testing.T) {
	g := newGame(t)
	res, err := g.PlayUCI("e2e4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Ply.PieceID != "P5_W" {
		t.Errorf("ply = %+v", res.Ply)
	}
	for _, bad := range []string{"e2", "e3e4", "e7e5x"} {
		if _, err := g.PlayUCI(bad); err == nil {
			t.Errorf("PlayUCI(%q) succeeded", bad)
		}
	}
}
