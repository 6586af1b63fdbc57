package chessrules

// Undo records everything Make changed so Unmake can restore the previous
// position exactly.
type Undo struct {
	mover      int
	from, to   Square
	kind       Kind
	moved      bool
	captured   int
	capturedAt Square
	rook       int
	rookFrom   Square
	rookTo     Square
	rookMoved  bool

	side      Side
	castling  CastlingRights
	enPassant Square
	hasEP     bool
	halfmove  int
	fullmove  int
	status    Status
}

// Captured returns the id of the piece the move captured, if any.
func (u Undo) Captured(p *Position) (string, bool) {
	if u.captured == noPiece {
		return "", false
	}
	return p.pieces[u.captured].ID, true
}

// EnPassant reports whether the move was an en passant capture.
func (u Undo) EnPassant() bool {
	return u.captured != noPiece && u.capturedAt != u.to
}

// Castled reports whether the move castled and on which wing.
func (u Undo) Castled() (Wing, bool) {
	if u.rook == noPiece {
		return Kingside, false
	}
	if u.rookFrom.File < u.from.File {
		return Queenside, true
	}
	return Kingside, true
}

// Promoted returns the kind a pawn was promoted to, if the move promoted.
func (u Undo) Promoted(p *Position) (Kind, bool) {
	k := p.pieces[u.mover].Kind
	if u.kind == Pawn && k != Pawn {
		return k, true
	}
	return Pawn, false
}

// Make plays the piece to the square without legality checks or status
// recomputation. A pawn reaching the last rank becomes promo, or a queen if
// promo is not a promotion kind. Make panics if the id is unknown.
func (p *Position) Make(id string, to Square, promo Kind) Undo {
	return p.makeIdx(p.mustIndex(id), to, promo)
}

// Commit plays the move and recomputes the game status. The caller is
// responsible for legality.
func (p *Position) Commit(id string, to Square, promo Kind) Undo {
	u := p.Make(id, to, promo)
	p.UpdateStatus()
	return u
}

func (p *Position) makeIdx(i int, to Square, promo Kind) Undo {
	pc := &p.pieces[i]
	side := pc.Side
	from := pc.Square
	u := Undo{
		mover:     i,
		from:      from,
		to:        to,
		kind:      pc.Kind,
		moved:     pc.HasMoved,
		captured:  noPiece,
		rook:      noPiece,
		side:      p.side,
		castling:  p.castling,
		enPassant: p.enPassant,
		hasEP:     p.hasEP,
		halfmove:  p.halfmove,
		fullmove:  p.fullmove,
		status:    p.status,
	}

	p.hasEP = false
	if pc.Kind == Pawn && abs(to.Rank-from.Rank) == 2 {
		p.enPassant = Sq(from.File, (from.Rank+to.Rank)/2)
		p.hasEP = true
	}

	if j := p.at(to); j != noPiece {
		u.captured, u.capturedAt = j, to
	} else if pc.Kind == Pawn && to.File != from.File && u.hasEP && to == u.enPassant {
		at := Sq(to.File, from.Rank)
		if j := p.at(at); j != noPiece && p.pieces[j].Kind == Pawn && p.pieces[j].Side != side {
			u.captured, u.capturedAt = j, at
		}
	}
	if u.captured != noPiece {
		p.pieces[u.captured].Alive = false
		p.set(u.capturedAt, noPiece)
	}

	if pc.Kind == Pawn || u.captured != noPiece {
		p.halfmove = 0
	} else {
		p.halfmove++
	}

	if pc.Kind == King && abs(to.File-from.File) == 2 {
		wing, inner := Kingside, -1
		if to.File < from.File {
			wing, inner = Queenside, 1
		}
		if r := p.castleRooks[side][wing]; r != noPiece && p.pieces[r].Alive {
			rook := &p.pieces[r]
			u.rook, u.rookFrom, u.rookMoved = r, rook.Square, rook.HasMoved
			u.rookTo = to.offset(inner, 0)
			p.set(rook.Square, noPiece)
			p.set(u.rookTo, r)
			rook.Square = u.rookTo
			rook.HasMoved = true
		}
	}

	p.set(from, noPiece)
	p.set(to, i)
	pc.Square = to
	pc.HasMoved = true
	if pc.Kind == King {
		p.castling[side] = [2]bool{}
	}
	for wing := Kingside; wing <= Queenside; wing++ {
		if p.castleRooks[side][wing] == i {
			p.castling[side][wing] = false
		}
	}

	if pc.Kind == Pawn && to.Rank == lastRank(side) {
		if !promo.IsPromotion() {
			promo = Queen
		}
		pc.Kind = promo
	}

	p.side = p.side.Opposite()
	if p.side == White {
		p.fullmove++
	}
	return u
}

// Unmake reverses the move recorded in u. It must be applied to the position
// Make returned u for, before any other move is made.
func (p *Position) Unmake(u Undo) {
	pc := &p.pieces[u.mover]
	p.set(u.to, noPiece)
	p.set(u.from, u.mover)
	pc.Square = u.from
	pc.Kind = u.kind
	pc.HasMoved = u.moved

	if u.rook != noPiece {
		rook := &p.pieces[u.rook]
		p.set(u.rookTo, noPiece)
		p.set(u.rookFrom, u.rook)
		rook.Square = u.rookFrom
		rook.HasMoved = u.rookMoved
	}

	if u.captured != noPiece {
		p.pieces[u.captured].Alive = true
		p.set(u.capturedAt, u.captured)
	}

	p.side = u.side
	p.castling = u.castling
	p.enPassant = u.enPassant
	p.hasEP = u.hasEP
	p.halfmove = u.halfmove
	p.fullmove = u.fullmove
	p.status = u.status
}

func lastRank(side Side) int {
	if side == Black {
		return 0
	}
	return 7
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
