package chessbot

import (
	"cmp"
	"slices"

	"github.com/walterschell/chessbot/chessrules"
)

// orderKey favours captures of valuable pieces, then targets near the board
// centre. Both terms are doubled so the centre distance stays integral.
func orderKey(pos *chessrules.Position, m chessrules.Move) int {
	key := 0
	if pc, ok := pos.PieceAt(m.To); ok {
		key += 2 * PieceValue(pc.Kind)
	}
	return key - abs(2*m.To.File-7) - abs(2*m.To.Rank-7)
}

// OrderMoves sorts moves in place, most promising first. Equal keys keep
// their generation order.
func OrderMoves(pos *chessrules.Position, moves []chessrules.Move) []chessrules.Move {
	keys := make(map[chessrules.Move]int, len(moves))
	for _, m := range moves {
		keys[m] = orderKey(pos, m)
	}
	slices.SortStableFunc(moves, func(a, b chessrules.Move) int {
		return cmp.Compare(keys[b], keys[a])
	})
	return moves
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
