package chessrules

import (
	"errors"
	"testing"
)

func TestStartPositionLayout(t *testing.T) {
	p := NewPosition()
	want := map[string]Square{
		"P1_W": Sq(0, 1), "P8_W": Sq(7, 1), "P5_B": Sq(4, 6),
		"R1_W": Sq(0, 0), "R2_W": Sq(7, 0), "R1_B": Sq(0, 7), "R2_B": Sq(7, 7),
		"N1_W": Sq(1, 0), "N2_W": Sq(6, 0), "N1_B": Sq(1, 7), "N2_B": Sq(6, 7),
		"B1_W": Sq(2, 0), "B2_W": Sq(5, 0), "B1_B": Sq(2, 7), "B2_B": Sq(5, 7),
		"Q_W": Sq(3, 0), "Q_B": Sq(3, 7), "K_W": Sq(4, 0), "K_B": Sq(4, 7),
	}
	for id, sq := range want {
		pc, ok := p.Piece(id)
		if !ok {
			t.Errorf("missing piece %s", id)
			continue
		}
		if pc.Square != sq || !pc.Alive || pc.HasMoved {
			t.Errorf("%s = %+v, want alive and unmoved on %v", id, pc, sq)
		}
	}
	if n := len(p.Pieces()); n != 32 {
		t.Errorf("got %d pieces, want 32", n)
	}
	if got := p.Pieces()[0].ID; got != "P1_W" {
		t.Errorf("first piece = %s, want P1_W", got)
	}
	if got := p.Pieces()[1].ID; got != "P1_B" {
		t.Errorf("second piece = %s, want P1_B", got)
	}
	if p.SideToMove() != White || p.FullmoveNumber() != 1 || p.HalfmoveClock() != 0 {
		t.Errorf("unexpected counters: side=%v full=%d half=%d", p.SideToMove(), p.FullmoveNumber(), p.HalfmoveClock())
	}
	for s := White; s <= Black; s++ {
		for w := Kingside; w <= Queenside; w++ {
			if !p.Castling().Has(s, w) {
				t.Errorf("%s should have %s castling", s, w)
			}
		}
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"4k3/8/8/8/8/8/8/R3K3 b Q - 12 40",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			p, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			if got := p.FEN(); got != fen {
				t.Errorf("FEN() = %q, want %q", got, fen)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestParseFENIDs(t *testing.T) {
	// Two white queens, a knight off its home square, and a rook that
	// cannot castle.
	p, err := ParseFEN("4k3/8/8/3N4/8/8/8/1Q1QK2R w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string]Square{
		"Q_W":  Sq(3, 0),
		"Q2_W": Sq(1, 0),
		"N1_W": Sq(3, 4),
		"R2_W": Sq(7, 0),
	}
	for id, sq := range checks {
		pc, ok := p.Piece(id)
		if !ok || pc.Square != sq {
			t.Errorf("%s = %+v (found %v), want on %v", id, pc, ok, sq)
		}
	}
	if pc, _ := p.Piece("R2_W"); !pc.HasMoved {
		t.Error("rook without castling right should count as moved")
	}
	if pc, _ := p.Piece("K_W"); !pc.HasMoved {
		t.Error("king without castling rights should count as moved")
	}
}

func TestParseFENDropsUnsupportedRights(t *testing.T) {
	p, err := ParseFEN("4k3/8/8/8/8/8/8/4K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.FEN(); got != "4k3/8/8/8/8/8/8/4K2R w K - 0 1" {
		t.Errorf("FEN() = %q", got)
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkz - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0",
		"8/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/3KK3 w - - 0 1",
		"P3k3/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k2R/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/3KP3/8/8/8/8 w - d6 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 b - d6 0 1",
		"4k3/8/8/3PP3/8/8/8/4K3 w - d6 0 1",
		"4k3/3r4/8/3pP3/8/8/8/4K3 w - d6 0 1",
	}
	for _, fen := range bad {
		t.Run(fen, func(t *testing.T) {
			if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("ParseFEN error = %v, want ErrInvalidFEN", err)
			}
		})
	}
}
