// Package chessbot is the computer opponent: a static evaluator and a
// depth-bounded negamax search with alpha-beta pruning.
package chessbot

import "github.com/walterschell/chessbot/chessrules"

const (
	// WinScore is the value of a won terminal position.
	WinScore = 10000

	centreBonus = 10
	checkBonus  = 50
	mobility    = 2
)

var pieceValues = [...]int{
	chessrules.Pawn:   100,
	chessrules.Knight: 320,
	chessrules.Bishop: 330,
	chessrules.Rook:   500,
	chessrules.Queen:  900,
	chessrules.King:   20000,
}

// PieceValue is the material value of a piece kind in centipawns.
func PieceValue(k chessrules.Kind) int {
	return pieceValues[k]
}

// Tables are indexed [rank][file] for White and [7-rank][file] for Black.
var (
	pawnTable = [8][8]int{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{50, 50, 50, 50, 50, 50, 50, 50},
		{10, 10, 20, 30, 30, 20, 10, 10},
		{5, 5, 10, 25, 25, 10, 5, 5},
		{0, 0, 0, 20, 20, 0, 0, 0},
		{5, -5, -10, 0, 0, -10, -5, 5},
		{5, 10, 10, -20, -20, 10, 10, 5},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	knightTable = [8][8]int{
		{-50, -40, -30, -30, -30, -30, -40, -50},
		{-40, -20, 0, 0, 0, 0, -20, -40},
		{-30, 0, 10, 15, 15, 10, 0, -30},
		{-30, 5, 15, 20, 20, 15, 5, -30},
		{-30, 0, 15, 20, 20, 15, 0, -30},
		{-30, 5, 10, 15, 15, 10, 5, -30},
		{-40, -20, 0, 5, 5, 0, -20, -40},
		{-50, -40, -30, -30, -30, -30, -40, -50},
	}
	bishopTable = [8][8]int{
		{-20, -10, -10, -10, -10, -10, -10, -20},
		{-10, 0, 0, 0, 0, 0, 0, -10},
		{-10, 0, 5, 10, 10, 5, 0, -10},
		{-10, 5, 5, 10, 10, 5, 5, -10},
		{-10, 0, 10, 10, 10, 10, 0, -10},
		{-10, 10, 10, 10, 10, 10, 10, -10},
		{-10, 5, 0, 0, 0, 0, 5, -10},
		{-20, -10, -10, -10, -10, -10, -10, -20},
	}
	kingMiddlegameTable = [8][8]int{
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-20, -30, -30, -40, -40, -30, -30, -20},
		{-10, -20, -20, -20, -20, -20, -20, -10},
		{20, 20, 0, 0, 0, 0, 20, 20},
		{20, 30, 10, 0, 0, 10, 30, 20},
	}
)

var centre = [...]chessrules.Square{
	chessrules.Sq(3, 3), chessrules.Sq(3, 4), chessrules.Sq(4, 3), chessrules.Sq(4, 4),
}

func squareBonus(pc chessrules.Piece) int {
	row := pc.Square.Rank
	if pc.Side == chessrules.Black {
		row = 7 - row
	}
	switch pc.Kind {
	case chessrules.Pawn:
		return pawnTable[row][pc.Square.File]
	case chessrules.Knight:
		return knightTable[row][pc.Square.File]
	case chessrules.Bishop:
		return bishopTable[row][pc.Square.File]
	case chessrules.King:
		return kingMiddlegameTable[row][pc.Square.File]
	}
	return 0
}

// Evaluate scores the position in centipawns from perspective's point of
// view. Evaluate(p, White) == -Evaluate(p, Black) for every position.
func Evaluate(pos *chessrules.Position, perspective chessrules.Side) int {
	if st := pos.Status(); st.Terminal() {
		switch {
		case !st.HasWinner():
			return 0
		case st.Winner == perspective:
			return WinScore
		default:
			return -WinScore
		}
	}

	score := 0
	for pc := range pos.AlivePieces() {
		v := PieceValue(pc.Kind) + squareBonus(pc) + mobility*pos.LegalMoveCount(pc.ID)
		if pc.Side == perspective {
			score += v
		} else {
			score -= v
		}
	}

	for _, sq := range centre {
		if pc, ok := pos.PieceAt(sq); ok {
			if pc.Side == perspective {
				score += centreBonus
			} else {
				score -= centreBonus
			}
		}
	}

	if pos.IsInCheck(perspective) {
		score -= checkBonus
	}
	if pos.IsInCheck(perspective.Opposite()) {
		score += checkBonus
	}
	return score
}

// Material is the total material value of the alive pieces of side, kings
// included.
func Material(pos *chessrules.Position, side chessrules.Side) int {
	total := 0
	for pc := range pos.AlivePieces() {
		if pc.Side == side {
			total += PieceValue(pc.Kind)
		}
	}
	return total
}
