package chessrules

var promotionKinds = [...]Kind{Queen, Rook, Bishop, Knight}

// Perft counts the leaf nodes of the legal move tree to the given depth.
// Each promotion counts once per promotion kind. Termination status is
// ignored, as is conventional for perft.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	c := p.Clone()
	return c.perft(depth)
}

func (p *Position) perft(depth int) uint64 {
	var nodes uint64
	for _, m := range p.LegalMovesFor(p.side) {
		kinds := promotionKinds[:1]
		if pc, _ := p.Piece(m.PieceID); pc.Kind == Pawn && m.To.Rank == lastRank(pc.Side) {
			kinds = promotionKinds[:]
		}
		for _, k := range kinds {
			if depth == 1 {
				nodes++
				continue
			}
			u := p.Make(m.PieceID, m.To, k)
			nodes += p.perft(depth - 1)
			p.Unmake(u)
		}
	}
	return nodes
}
