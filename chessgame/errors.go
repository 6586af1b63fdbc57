package chessgame

import (
	"errors"

	"github.com/walterschell/chessbot/chessrules"
)

var (
	ErrInvalidSquareText      = chessrules.ErrInvalidSquareText
	ErrUnknownOrDeadPiece     = errors.New("unknown or captured piece")
	ErrWrongSideToMove        = errors.New("piece does not belong to the side to move")
	ErrIllegalTarget          = errors.New("illegal target square")
	ErrGameAlreadyTerminal    = errors.New("game is already over")
	ErrInvalidPromotionChoice = errors.New("invalid promotion choice")
	ErrNotAITurn              = errors.New("not the computer's turn")
	ErrNoAI                   = errors.New("game has no computer player")
	ErrInvalidDifficulty      = errors.New("invalid difficulty")
)
