package chessgame

import (
	"strings"

	"github.com/walterschell/chessbot/chessrules"
)

// BoardPiece is one occupied cell of BoardState.Board.
type BoardPiece struct {
	ID    string          `json:"id"`
	Type  chessrules.Kind `json:"type"`
	Color chessrules.Side `json:"color"`
}

// BoardState is a JSON snapshot of the game. Board rows run from rank 8
// down to rank 1 and columns from file A to H; empty cells are null.
type BoardState struct {
	FEN            string             `json:"fen"`
	Board          [8][8]*BoardPiece  `json:"board"`
	Pieces         []chessrules.Piece `json:"pieces"`
	CurrentTurn    chessrules.Side    `json:"currentTurn"`
	Status         chessrules.Status  `json:"status"`
	GameOver       bool               `json:"gameOver"`
	Winner         string             `json:"winner,omitempty"`
	Check          bool               `json:"check"`
	FullmoveNumber int                `json:"fullmoveNumber"`
	HalfmoveClock  int                `json:"halfmoveClock"`
	EnPassant      *chessrules.Square `json:"enPassant,omitempty"`
	CapturedPieces []chessrules.Piece `json:"capturedPieces"`
	History        []Ply              `json:"history"`
	VsAI           bool               `json:"vsAI"`
	AISide         *chessrules.Side   `json:"aiSide,omitempty"`
	Difficulty     Difficulty         `json:"aiDifficulty,omitempty"`
	Evaluation     int                `json:"materialBalance"`
}

// State snapshots the game for display.
func (g *Game) State() BoardState {
	st := g.pos.Status()
	s := BoardState{
		FEN:            g.pos.FEN(),
		Pieces:         g.pos.Pieces(),
		CurrentTurn:    g.pos.SideToMove(),
		Status:         st,
		GameOver:       st.Terminal(),
		Check:          g.pos.IsInCheck(g.pos.SideToMove()),
		FullmoveNumber: g.pos.FullmoveNumber(),
		HalfmoveClock:  g.pos.HalfmoveClock(),
		CapturedPieces: g.Captured(),
		History:        g.History(),
		VsAI:           g.bot != nil,
		Evaluation:     g.EvaluatePosition(),
	}
	if s.CapturedPieces == nil {
		s.CapturedPieces = []chessrules.Piece{}
	}
	if s.History == nil {
		s.History = []Ply{}
	}
	switch {
	case st.HasWinner():
		s.Winner = strings.ToLower(st.Winner.String())
	case st.Terminal():
		s.Winner = "draw"
	}
	if ep, ok := g.pos.EnPassant(); ok {
		s.EnPassant = &ep
	}
	if side, ok := g.AISide(); ok {
		s.AISide = &side
		s.Difficulty = g.diff
	}
	for pc := range g.pos.AlivePieces() {
		s.Board[7-pc.Square.Rank][pc.Square.File] = &BoardPiece{ID: pc.ID, Type: pc.Kind, Color: pc.Side}
	}
	return s
}
