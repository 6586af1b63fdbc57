package chessgame

import (
	"errors"
	"strings"
	"testing"

	"github.com/walterschell/chessbot/chessrules"
)

const chessComGame = `
[Event "Live Chess"]
[Site "Chess.com"]
[Date "2025.03.20"]
[Round "-"]
[White "Player 1"]
[Black "Player 2"]
[Result "1-0"]

1. e4 Nc6 2. Bc4 e5 3. Nf3 d6 4. Nc3 Bg4 5. O-O Nd4 $6 6. d3 $9 Nxf3+ 7. gxf3 Bh5
8. Be3 $6 Qf6 9. Nd5 Qg6+ $2 10. Kh1 O-O-O $6 11. Rg1 $1 Qe6 12. Nb6+ $3 1-0
`

func TestPGNExport(t *testing.T) {
	g := newGame(t)
	mustMove(t, g, "P6_W", "F3")
	mustMove(t, g, "P5_B", "E5")
	mustMove(t, g, "P7_W", "G4")
	mustMove(t, g, "Q_B", "H4")

	pgn, err := g.PGN()
	if err != nil {
		t.Fatalf("PGN: %v", err)
	}
	for _, want := range []string{"1. f3 e5", "2. g4 Qh4", "0-1", `[White "Human"]`} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN missing %q:\n%s", want, pgn)
		}
	}

	back, err := LoadPGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("LoadPGN: %v", err)
	}
	if back.FEN() != g.FEN() {
		t.Errorf("replayed FEN %s, want %s", back.FEN(), g.FEN())
	}
	if st := back.Status(); st.Kind != chessrules.Checkmate {
		t.Errorf("replayed status = %v", st)
	}
}

func TestPGNResignation(t *testing.T) {
	g := newGame(t, WithAI(chessrules.Black, Easy), WithTag("Event", "Test"))
	mustMove(t, g, "P5_W", "E4")
	if err := g.Resign(chessrules.Black); err != nil {
		t.Fatal(err)
	}
	pgn, err := g.PGN()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"1-0", `[Event "Test"]`, `[Black "Computer (easy)"]`, "resignation"} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN missing %q:\n%s", want, pgn)
		}
	}
}

func TestPGNFromPosition(t *testing.T) {
	const fen = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	g := newGame(t, WithPosition(fen))
	mustMove(t, g, "K_W", "C1")
	pgn, err := g.PGN()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pgn, `[FEN "`+fen+`"]`) || !strings.Contains(pgn, "O-O-O") {
		t.Errorf("PGN:\n%s", pgn)
	}
}

func TestLoadPGN(t *testing.T) {
	g, err := LoadPGN(strings.NewReader(chessComGame))
	if err != nil {
		t.Fatalf("LoadPGN: %v", err)
	}
	h := g.History()
	if len(h) != 23 {
		t.Fatalf("plies = %d, want 23", len(h))
	}
	if last := h[len(h)-1]; last.PieceID != "N1_W" || last.To != chessrules.Sq(1, 5) || !last.Check {
		t.Errorf("last ply = %+v", last)
	}
	if castle := h[8]; castle.Castle != "kingside" || castle.PieceID != "K_W" {
		t.Errorf("ply 9 = %+v", castle)
	}
	if castle := h[19]; castle.Castle != "queenside" || castle.PieceID != "K_B" {
		t.Errorf("ply 20 = %+v", castle)
	}
}

func TestLoadPGNMovetextOnly(t *testing.T) {
	for _, in := range []string{"1. e4 e5 2. Nf3 Nc6 *\n", "\n  1. e4 e5 2. Nf3 Nc6 *"} {
		t.Run(strings.TrimSpace(in), func(t *testing.T) {
			g, err := LoadPGN(strings.NewReader(in))
			if err != nil {
				t.Fatalf("LoadPGN: %v", err)
			}
			if n := len(g.History()); n != 4 {
				t.Errorf("plies = %d, want 4", n)
			}
			if g.Position().SideToMove() != chessrules.White {
				t.Errorf("turn = %s, want white", g.Position().SideToMove())
			}
			if pc, _ := g.Position().Piece("N1_B"); pc.Square != chessrules.Sq(2, 5) {
				t.Errorf("N1_B on %s, want C6", pc.Square)
			}
		})
	}
}

func TestLoadPGNEmpty(t *testing.T) {
	for _, in := range []string{"", "  \n\t"} {
		if _, err := LoadPGN(strings.NewReader(in)); !errors.Is(err, ErrInvalidPGN) {
			t.Errorf("LoadPGN(%q) error = %v, want ErrInvalidPGN", in, err)
		}
	}
}
