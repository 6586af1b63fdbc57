// Package chessrules implements the chess position model, move generation,
// legality filtering, move application, and game termination rules.
package chessrules

import (
	"errors"
	"fmt"
	"iter"
)

// noPiece marks an empty grid cell or an absent piece reference.
const noPiece = -1

// Wing selects the castling side of the board.
type Wing uint8

const (
	Kingside Wing = iota
	Queenside
)

func (w Wing) String() string {
	if w == Queenside {
		return "queenside"
	}
	return "kingside"
}

// CastlingRights holds the four independent castling rights, indexed by side
// and wing. Rights only ever go from true to false.
type CastlingRights [2][2]bool

// Has reports whether side may still castle on wing.
func (c CastlingRights) Has(side Side, wing Wing) bool {
	return c[side][wing]
}

// Move is a piece id and its destination.
type Move struct {
	PieceID string `json:"pieceId"`
	From    Square `json:"from"`
	To      Square `json:"to"`
}

func (m Move) String() string {
	return m.PieceID + " " + m.From.String() + "-" + m.To.String()
}

// Position is the complete board state of a game.
type Position struct {
	grid   [8][8]int // [file][rank] -> index into pieces, or noPiece
	pieces []Piece
	// index maps piece ids to slice positions. It is built once and never
	// written afterwards, so clones share it.
	index map[string]int

	kings       [2]int    // king index per side
	castleRooks [2][2]int // [side][wing] -> index of the rook that castles there

	side      Side
	castling  CastlingRights
	enPassant Square
	hasEP     bool
	halfmove  int
	fullmove  int
	status    Status
}

// NewPosition returns the standard initial position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// Clone returns a deep copy. Mutating the copy is never observable from p.
func (p *Position) Clone() *Position {
	c := *p
	c.pieces = make([]Piece, len(p.pieces))
	copy(c.pieces, p.pieces)
	return &c
}

// SideToMove returns the side whose turn it is.
func (p *Position) SideToMove() Side { return p.side }

// Castling returns the current castling rights.
func (p *Position) Castling() CastlingRights { return p.castling }

// EnPassant returns the en passant target square, if any.
func (p *Position) EnPassant() (Square, bool) { return p.enPassant, p.hasEP }

// HalfmoveClock is the number of plies since the last pawn move or capture.
func (p *Position) HalfmoveClock() int { return p.halfmove }

// FullmoveNumber starts at 1 and increments after each Black move.
func (p *Position) FullmoveNumber() int { return p.fullmove }

// Status returns the terminal status as of the last committed move.
func (p *Position) Status() Status { return p.status }

// Pieces returns a copy of every piece, dead ones included, in a fixed order.
func (p *Position) Pieces() []Piece {
	out := make([]Piece, len(p.pieces))
	copy(out, p.pieces)
	return out
}

// AlivePieces yields the pieces still on the board, in the same order as
// Pieces.
func (p *Position) AlivePieces() iter.Seq[Piece] {
	return func(yield func(Piece) bool) {
		for i := range p.pieces {
			if p.pieces[i].Alive && !yield(p.pieces[i]) {
				return
			}
		}
	}
}

// Piece looks a piece up by id.
func (p *Position) Piece(id string) (Piece, bool) {
	i, ok := p.index[id]
	if !ok {
		return Piece{}, false
	}
	return p.pieces[i], true
}

// PieceAt returns the piece standing on sq.
func (p *Position) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	i := p.grid[sq.File][sq.Rank]
	if i == noPiece {
		return Piece{}, false
	}
	return p.pieces[i], true
}

func (p *Position) at(sq Square) int {
	return p.grid[sq.File][sq.Rank]
}

func (p *Position) set(sq Square, i int) {
	p.grid[sq.File][sq.Rank] = i
}

func (p *Position) mustIndex(id string) int {
	i, ok := p.index[id]
	if !ok {
		panic(fmt.Sprintf("chessrules: unknown piece %q", id))
	}
	return i
}

// Validate checks the structural invariants of the position. A failure means
// a bug in move application, not bad input.
func (p *Position) Validate() error {
	var errs []error
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			i := p.grid[f][r]
			if i == noPiece {
				continue
			}
			pc := p.pieces[i]
			if !pc.Alive {
				errs = append(errs, fmt.Errorf("dead piece %s on %s", pc.ID, Sq(f, r)))
			}
			if pc.Square != Sq(f, r) {
				errs = append(errs, fmt.Errorf("piece %s on %s claims %s", pc.ID, Sq(f, r), pc.Square))
			}
		}
	}
	var kings [2]int
	for i, pc := range p.pieces {
		if !pc.Alive {
			continue
		}
		if !pc.Square.Valid() || p.at(pc.Square) != i {
			errs = append(errs, fmt.Errorf("alive piece %s missing from grid at %s", pc.ID, pc.Square))
		}
		if pc.Kind == King {
			kings[pc.Side]++
		}
	}
	if !p.status.Terminal() {
		for side, n := range kings {
			if n != 1 {
				errs = append(errs, fmt.Errorf("%s has %d kings", Side(side), n))
			}
		}
	}
	for side := White; side <= Black; side++ {
		k := p.kings[side]
		if k == noPiece {
			continue
		}
		for wing := Kingside; wing <= Queenside; wing++ {
			if p.castling[side][wing] && p.pieces[k].HasMoved {
				errs = append(errs, fmt.Errorf("%s keeps %s castling after king moved", side, wing))
			}
		}
	}
	if p.hasEP && p.enPassant.Rank != 2 && p.enPassant.Rank != 5 {
		errs = append(errs, fmt.Errorf("en passant target %s on wrong rank", p.enPassant))
	}
	if p.fullmove < 1 {
		errs = append(errs, fmt.Errorf("fullmove number %d", p.fullmove))
	}
	return errors.Join(errs...)
}
