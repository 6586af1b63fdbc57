package chessrules

// IsSquareAttacked reports whether any alive piece of side by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Side) bool {
	var buf [32]Square
	for j := range p.pieces {
		pc := &p.pieces[j]
		if !pc.Alive || pc.Side != by {
			continue
		}
		for _, t := range p.attacks(j, buf[:0]) {
			if t == sq {
				return true
			}
		}
	}
	return false
}

// IsInCheck reports whether the king of side is attacked. A side with no
// alive king is never in check.
func (p *Position) IsInCheck(side Side) bool {
	k := p.kings[side]
	if k == noPiece || !p.pieces[k].Alive {
		return false
	}
	return p.IsSquareAttacked(p.pieces[k].Square, side.Opposite())
}

// isLegal plays the move on p and tests the mover's king before taking it
// back. Promotions are tried as queens; the promoted kind cannot affect the
// mover's own king safety.
func (p *Position) isLegal(i int, to Square) bool {
	side := p.pieces[i].Side
	u := p.makeIdx(i, to, Queen)
	ok := !p.IsInCheck(side)
	p.Unmake(u)
	return ok
}

func (p *Position) legalTargets(i int, dst []Square) []Square {
	var buf [32]Square
	for _, to := range p.pseudoLegal(i, buf[:0]) {
		if p.isLegal(i, to) {
			dst = append(dst, to)
		}
	}
	return dst
}

// LegalMoves lists the legal destinations of the piece in generation order.
// Unknown and dead pieces have none. The piece need not belong to the side to
// move.
func (p *Position) LegalMoves(id string) []Square {
	i, ok := p.index[id]
	if !ok || !p.pieces[i].Alive {
		return nil
	}
	return p.legalTargets(i, nil)
}

// LegalMoveCount is len(LegalMoves(id)) without building the slice.
func (p *Position) LegalMoveCount(id string) int {
	i, ok := p.index[id]
	if !ok || !p.pieces[i].Alive {
		return 0
	}
	var buf [32]Square
	n := 0
	for _, to := range p.pseudoLegal(i, buf[:0]) {
		if p.isLegal(i, to) {
			n++
		}
	}
	return n
}

// IsLegal reports whether moving the piece to sq is legal for its owner.
func (p *Position) IsLegal(id string, sq Square) bool {
	i, ok := p.index[id]
	if !ok || !p.pieces[i].Alive || !sq.Valid() {
		return false
	}
	var buf [32]Square
	for _, to := range p.pseudoLegal(i, buf[:0]) {
		if to == sq {
			return p.isLegal(i, to)
		}
	}
	return false
}

// LegalMovesFor lists every legal move of side, pieces in position order and
// targets in generation order.
func (p *Position) LegalMovesFor(side Side) []Move {
	var moves []Move
	var buf [32]Square
	for i := range p.pieces {
		pc := &p.pieces[i]
		if !pc.Alive || pc.Side != side {
			continue
		}
		for _, to := range p.legalTargets(i, buf[:0]) {
			moves = append(moves, Move{PieceID: pc.ID, From: pc.Square, To: to})
		}
	}
	return moves
}
