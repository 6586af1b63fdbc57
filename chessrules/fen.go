package chessrules

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is returned by ParseFEN for malformed or impossible input.
var ErrInvalidFEN = errors.New("invalid FEN")

var fenKinds = map[byte]Kind{'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King}

// layoutOrder is the order kinds appear in the piece slice.
var layoutOrder = [...]int{Pawn: 0, Rook: 1, Knight: 2, Bishop: 3, Queen: 4, King: 5}

type placed struct {
	kind Kind
	side Side
	sq   Square
	num  int
}

// ParseFEN builds a position from Forsyth-Edwards Notation. The halfmove and
// fullmove fields may be omitted. Piece ids follow the standard layout where
// a piece stands on its home square, and surplus pieces take the next free
// number. Castling rights that the king or rook placement cannot support are
// dropped.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, fmt.Errorf("%w: want 4 to 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	entries, err := parsePlacement(fields[0])
	if err != nil {
		return nil, err
	}

	p := &Position{
		index:    make(map[string]int, len(entries)),
		kings:    [2]int{noPiece, noPiece},
		halfmove: 0,
		fullmove: 1,
	}
	for f := range p.grid {
		for r := range p.grid[f] {
			p.grid[f][r] = noPiece
		}
	}
	for s := range p.castleRooks {
		p.castleRooks[s] = [2]int{noPiece, noPiece}
	}

	switch fields[1] {
	case "w":
		p.side = White
	case "b":
		p.side = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for _, c := range []byte(fields[2]) {
			switch c {
			case 'K':
				p.castling[White][Kingside] = true
			case 'Q':
				p.castling[White][Queenside] = true
			case 'k':
				p.castling[Black][Kingside] = true
			case 'q':
				p.castling[Black][Queenside] = true
			default:
				return nil, fmt.Errorf("%w: castling %q", ErrInvalidFEN, fields[2])
			}
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		want := 5
		if p.side == Black {
			want = 2
		}
		if sq.Rank != want {
			return nil, fmt.Errorf("%w: en passant %q for %s to move", ErrInvalidFEN, fields[3], p.side)
		}
		p.enPassant, p.hasEP = sq, true
	}

	if len(fields) >= 5 {
		if p.halfmove, err = strconv.Atoi(fields[4]); err != nil || p.halfmove < 0 {
			return nil, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
		}
	}
	if len(fields) == 6 {
		if p.fullmove, err = strconv.Atoi(fields[5]); err != nil || p.fullmove < 1 {
			return nil, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
		}
	}

	numberPieces(entries)
	slices.SortStableFunc(entries, func(a, b placed) int {
		if c := cmp.Compare(layoutOrder[a.kind], layoutOrder[b.kind]); c != 0 {
			return c
		}
		if a.kind == Pawn {
			return cmp.Or(cmp.Compare(a.num, b.num), cmp.Compare(a.side, b.side))
		}
		return cmp.Or(cmp.Compare(a.side, b.side), cmp.Compare(a.num, b.num))
	})

	p.pieces = make([]Piece, 0, len(entries))
	for _, e := range entries {
		i := len(p.pieces)
		pc := Piece{ID: pieceID(e.kind, e.side, e.num), Kind: e.kind, Side: e.side, Square: e.sq, Alive: true}
		if e.kind == Pawn {
			pc.HasMoved = e.sq.Rank != homeRank(e.side)+e.side.forward()
		}
		p.pieces = append(p.pieces, pc)
		p.index[pc.ID] = i
		p.set(e.sq, i)
		switch {
		case e.kind == King:
			if p.kings[e.side] != noPiece {
				return nil, fmt.Errorf("%w: %s has more than one king", ErrInvalidFEN, e.side)
			}
			p.kings[e.side] = i
		case e.kind == Rook && e.sq.Rank == homeRank(e.side) && e.sq.File == 0:
			p.castleRooks[e.side][Queenside] = i
		case e.kind == Rook && e.sq.Rank == homeRank(e.side) && e.sq.File == 7:
			p.castleRooks[e.side][Kingside] = i
		}
	}

	for side := White; side <= Black; side++ {
		k := p.kings[side]
		if k == noPiece {
			return nil, fmt.Errorf("%w: %s has no king", ErrInvalidFEN, side)
		}
		kingHome := p.pieces[k].Square == Sq(4, homeRank(side))
		for wing := Kingside; wing <= Queenside; wing++ {
			if !kingHome || p.castleRooks[side][wing] == noPiece {
				p.castling[side][wing] = false
			}
			if r := p.castleRooks[side][wing]; r != noPiece {
				p.pieces[r].HasMoved = !p.castling[side][wing]
			}
		}
		p.pieces[k].HasMoved = !p.castling[side][Kingside] && !p.castling[side][Queenside]
	}

	if p.hasEP {
		behind := p.enPassant.offset(0, -p.side.forward())
		j := p.at(behind)
		if j == noPiece || p.pieces[j].Kind != Pawn || p.pieces[j].Side == p.side ||
			p.at(p.enPassant) != noPiece || p.at(p.enPassant.offset(0, p.side.forward())) != noPiece {
			return nil, fmt.Errorf("%w: en passant %q without a capturable pawn", ErrInvalidFEN, fields[3])
		}
	}

	if p.IsInCheck(p.side.Opposite()) {
		return nil, fmt.Errorf("%w: %s is in check but not to move", ErrInvalidFEN, p.side.Opposite())
	}
	p.UpdateStatus()
	return p, nil
}

func parsePlacement(s string) ([]placed, error) {
	rows := strings.Split(s, "/")
	if len(rows) != 8 {
		return nil, fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidFEN, len(rows))
	}
	var entries []placed
	for ri, row := range rows {
		rank := 7 - ri
		file := 0
		for _, c := range []byte(row) {
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			k, ok := fenKinds[c|0x20]
			if !ok {
				return nil, fmt.Errorf("%w: piece %q", ErrInvalidFEN, c)
			}
			if file > 7 {
				return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
			}
			side := Black
			if c < 'a' {
				side = White
			}
			if k == Pawn && (rank == 0 || rank == 7) {
				return nil, fmt.Errorf("%w: pawn on rank %d", ErrInvalidFEN, rank+1)
			}
			entries = append(entries, placed{kind: k, side: side, sq: Sq(file, rank)})
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, rank+1, file)
		}
	}
	// Scan order is rank 1 to 8, file A to H.
	slices.SortStableFunc(entries, func(a, b placed) int {
		return cmp.Or(cmp.Compare(a.sq.Rank, b.sq.Rank), cmp.Compare(a.sq.File, b.sq.File))
	})
	return entries, nil
}

// numberPieces gives every entry its id number. Pieces on their home square
// keep their standard number; the rest take the lowest free one.
func numberPieces(entries []placed) {
	used := map[[2]int]map[int]bool{}
	taken := func(e placed) map[int]bool {
		key := [2]int{int(e.kind), int(e.side)}
		if used[key] == nil {
			used[key] = map[int]bool{}
		}
		return used[key]
	}
	for i := range entries {
		e := &entries[i]
		if n := homeNumber(*e); n > 0 && !taken(*e)[n] {
			e.num = n
			taken(*e)[n] = true
		}
	}
	for i := range entries {
		e := &entries[i]
		if e.num > 0 {
			continue
		}
		t := taken(*e)
		n := 1
		for t[n] {
			n++
		}
		e.num = n
		t[n] = true
	}
}

func homeNumber(e placed) int {
	home := e.sq.Rank == homeRank(e.side)
	switch e.kind {
	case Pawn:
		return e.sq.File + 1
	case King:
		return 1
	case Queen:
		if home && e.sq.File == 3 {
			return 1
		}
	case Rook:
		if home && e.sq.File == 0 {
			return 1
		}
		if home && e.sq.File == 7 {
			return 2
		}
	case Knight:
		if home && e.sq.File == 1 {
			return 1
		}
		if home && e.sq.File == 6 {
			return 2
		}
	case Bishop:
		if home && e.sq.File == 2 {
			return 1
		}
		if home && e.sq.File == 5 {
			return 2
		}
	}
	return 0
}

// pieceID renders ids like "P3_W", "R1_B", "Q_W" and "Q2_W".
func pieceID(k Kind, side Side, n int) string {
	if (k == Queen || k == King) && n == 1 {
		return k.Letter() + side.suffix()
	}
	return k.Letter() + strconv.Itoa(n) + side.suffix()
}

func homeRank(side Side) int {
	if side == Black {
		return 7
	}
	return 0
}

// FEN renders the position in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	var b strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			i := p.grid[f][r]
			if i == noPiece {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			pc := p.pieces[i]
			letter := pc.Kind.Letter()
			if pc.Side == Black {
				letter = strings.ToLower(letter)
			}
			b.WriteString(letter)
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			b.WriteByte('/')
		}
	}

	if p.side == White {
		b.WriteString(" w ")
	} else {
		b.WriteString(" b ")
	}

	rights := ""
	for _, r := range []struct {
		side Side
		wing Wing
		c    string
	}{{White, Kingside, "K"}, {White, Queenside, "Q"}, {Black, Kingside, "k"}, {Black, Queenside, "q"}} {
		if p.castling[r.side][r.wing] {
			rights += r.c
		}
	}
	if rights == "" {
		rights = "-"
	}
	b.WriteString(rights)

	if p.hasEP {
		b.WriteString(" " + strings.ToLower(p.enPassant.String()))
	} else {
		b.WriteString(" -")
	}
	fmt.Fprintf(&b, " %d %d", p.halfmove, p.fullmove)
	return b.String()
}

func (p *Position) String() string {
	return p.FEN()
}
