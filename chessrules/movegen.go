package chessrules

type offset struct{ df, dr int }

var (
	knightOffsets = [...]offset{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
	kingOffsets   = [...]offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookDirs      = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs    = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs     = append(append([]offset{}, rookDirs...), bishopDirs...)
)

func slideDirs(k Kind) []offset {
	switch k {
	case Rook:
		return rookDirs
	case Bishop:
		return bishopDirs
	case Queen:
		return queenDirs
	}
	return nil
}

// PseudoLegalTargets lists the squares the piece could move to ignoring
// whether its own king would be left in check. Unknown or dead pieces have
// no targets.
func (p *Position) PseudoLegalTargets(id string) []Square {
	i, ok := p.index[id]
	if !ok || !p.pieces[i].Alive {
		return nil
	}
	return p.pseudoLegal(i, nil)
}

// Attacks lists the squares the piece attacks. This differs from the
// pseudo-legal targets in that own-occupied squares count, pawns attack both
// forward diagonals whatever stands there, and en passant and castling are
// never attacks.
func (p *Position) Attacks(id string) []Square {
	i, ok := p.index[id]
	if !ok || !p.pieces[i].Alive {
		return nil
	}
	return p.attacks(i, nil)
}

// pseudoLegal appends the pseudo-legal targets of piece i to dst.
func (p *Position) pseudoLegal(i int, dst []Square) []Square {
	pc := &p.pieces[i]
	from := pc.Square
	switch pc.Kind {
	case Pawn:
		return p.pawnTargets(pc, dst)
	case Knight:
		for _, o := range knightOffsets {
			if to := from.offset(o.df, o.dr); p.enterable(to, pc.Side) {
				dst = append(dst, to)
			}
		}
	case King:
		for _, o := range kingOffsets {
			if to := from.offset(o.df, o.dr); p.enterable(to, pc.Side) {
				dst = append(dst, to)
			}
		}
		if p.canCastle(pc.Side, Kingside) {
			dst = append(dst, from.offset(2, 0))
		}
		if p.canCastle(pc.Side, Queenside) {
			dst = append(dst, from.offset(-2, 0))
		}
	default:
		for _, d := range slideDirs(pc.Kind) {
			for to := from.offset(d.df, d.dr); to.Valid(); to = to.offset(d.df, d.dr) {
				j := p.at(to)
				if j == noPiece {
					dst = append(dst, to)
					continue
				}
				if p.pieces[j].Side != pc.Side {
					dst = append(dst, to)
				}
				break
			}
		}
	}
	return dst
}

// enterable reports whether a non-pawn of side may step onto sq.
func (p *Position) enterable(sq Square, side Side) bool {
	if !sq.Valid() {
		return false
	}
	j := p.at(sq)
	return j == noPiece || p.pieces[j].Side != side
}

func (p *Position) pawnTargets(pc *Piece, dst []Square) []Square {
	fwd := pc.Side.forward()
	one := pc.Square.offset(0, fwd)
	if one.Valid() && p.at(one) == noPiece {
		dst = append(dst, one)
		two := one.offset(0, fwd)
		if !pc.HasMoved && two.Valid() && p.at(two) == noPiece {
			dst = append(dst, two)
		}
	}
	for _, df := range [2]int{-1, 1} {
		to := pc.Square.offset(df, fwd)
		if !to.Valid() {
			continue
		}
		if j := p.at(to); j != noPiece {
			if p.pieces[j].Side != pc.Side {
				dst = append(dst, to)
			}
		} else if p.hasEP && to == p.enPassant {
			dst = append(dst, to)
		}
	}
	return dst
}

// attacks appends the squares attacked by piece i to dst.
func (p *Position) attacks(i int, dst []Square) []Square {
	pc := &p.pieces[i]
	from := pc.Square
	switch pc.Kind {
	case Pawn:
		fwd := pc.Side.forward()
		for _, df := range [2]int{-1, 1} {
			if to := from.offset(df, fwd); to.Valid() {
				dst = append(dst, to)
			}
		}
	case Knight:
		for _, o := range knightOffsets {
			if to := from.offset(o.df, o.dr); to.Valid() {
				dst = append(dst, to)
			}
		}
	case King:
		for _, o := range kingOffsets {
			if to := from.offset(o.df, o.dr); to.Valid() {
				dst = append(dst, to)
			}
		}
	default:
		for _, d := range slideDirs(pc.Kind) {
			for to := from.offset(d.df, d.dr); to.Valid(); to = to.offset(d.df, d.dr) {
				dst = append(dst, to)
				if p.at(to) != noPiece {
					break
				}
			}
		}
	}
	return dst
}

// canCastle reports whether side may castle on wing right now. The king's
// start, transit and destination squares must all be unattacked.
func (p *Position) canCastle(side Side, wing Wing) bool {
	if !p.castling[side][wing] {
		return false
	}
	k := p.kings[side]
	if k == noPiece {
		return false
	}
	king := &p.pieces[k]
	if !king.Alive || king.HasMoved {
		return false
	}
	r := p.castleRooks[side][wing]
	if r == noPiece {
		return false
	}
	rook := &p.pieces[r]
	if !rook.Alive || rook.HasMoved || rook.Square.Rank != king.Square.Rank {
		return false
	}
	step := 1
	if rook.Square.File < king.Square.File {
		step = -1
	}
	for f := king.Square.File + step; f != rook.Square.File; f += step {
		if p.grid[f][king.Square.Rank] != noPiece {
			return false
		}
	}
	enemy := side.Opposite()
	for n := 0; n <= 2; n++ {
		if p.IsSquareAttacked(king.Square.offset(n*step, 0), enemy) {
			return false
		}
	}
	return true
}
