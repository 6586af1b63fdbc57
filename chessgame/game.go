// Package chessgame is the session boundary around the rules engine: it
// validates commands, keeps the move record, and drives the computer player.
package chessgame

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/walterschell/chessbot/chessbot"
	"github.com/walterschell/chessbot/chessrules"
)

var log = slog.Default().With("package", "chessgame")

// Difficulty is the computer player's search depth in plies.
type Difficulty int

const (
	Easy   Difficulty = 2
	Medium Difficulty = 3
	Hard   Difficulty = 4
	Expert Difficulty = 5

	minDifficulty = 1
	maxDifficulty = 5
)

// HintDepth is the search depth used for hints.
const HintDepth = 2

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	case Expert:
		return "expert"
	}
	return strconv.Itoa(int(d))
}

// Valid reports whether d is a supported search depth.
func (d Difficulty) Valid() bool {
	return d >= minDifficulty && d <= maxDifficulty
}

// ParseDifficulty accepts a level name or a depth between 1 and 5.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	case "expert":
		return Expert, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Difficulty(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return Difficulty(n), nil
}

type options struct {
	fen        string
	ai         bool
	aiSide     chessrules.Side
	difficulty Difficulty
	tags       map[string]string
}

type Option func(*options)

// WithAI adds a computer player for side.
func WithAI(side chessrules.Side, d Difficulty) Option {
	return func(o *options) {
		o.ai = true
		o.aiSide = side
		o.difficulty = d
	}
}

// WithPosition starts the game from a FEN position instead of the initial
// layout.
func WithPosition(fen string) Option {
	return func(o *options) {
		o.fen = fen
	}
}

// WithTag sets a PGN tag pair on the exported record.
func WithTag(key, value string) Option {
	return func(o *options) {
		if o.tags == nil {
			o.tags = map[string]string{}
		}
		o.tags[key] = value
	}
}

// Game is one game in progress. It is not safe for concurrent use.
type Game struct {
	pos      *chessrules.Position
	startFEN string
	bot      *chessbot.Bot
	diff     Difficulty
	history  []Ply
	captured []chessrules.Piece
	tags     map[string]string
}

// Ply is one committed half-move.
type Ply struct {
	Number    int               `json:"number"`
	Side      chessrules.Side   `json:"side"`
	PieceID   string            `json:"pieceId"`
	Kind      chessrules.Kind   `json:"kind"`
	From      chessrules.Square `json:"from"`
	To        chessrules.Square `json:"to"`
	Captured  string            `json:"captured,omitempty"`
	Promotion string            `json:"promotion,omitempty"`
	Castle    string            `json:"castle,omitempty"`
	EnPassant bool              `json:"enPassant,omitempty"`
	Check     bool              `json:"check"`
	UCI       string            `json:"uci"`
	FEN       string            `json:"fen"`
}

// MoveResult is returned for every committed move.
type MoveResult struct {
	Ply    Ply               `json:"ply"`
	Status chessrules.Status `json:"status"`
	Check  bool              `json:"check"`
}

// NewGame starts a game. With no options it is a two-player game from the
// initial position.
func NewGame(opts ...Option) (*Game, error) {
	o := options{fen: chessrules.StartFEN, difficulty: Medium}
	for _, opt := range opts {
		opt(&o)
	}
	pos, err := chessrules.ParseFEN(o.fen)
	if err != nil {
		return nil, err
	}
	g := &Game{pos: pos, startFEN: pos.FEN(), tags: o.tags}
	if o.ai {
		if !o.difficulty.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, o.difficulty)
		}
		g.diff = o.difficulty
		g.bot = chessbot.New(o.aiSide, chessbot.WithDepth(int(o.difficulty)), chessbot.WithLogger(log))
	}
	log.Info("Game created", "fen", g.startFEN, "vsAI", o.ai, "aiSide", o.aiSide, "difficulty", o.difficulty)
	return g, nil
}

// LegalMoves lists the legal targets of a piece. Unknown and captured pieces
// have none.
func (g *Game) LegalMoves(pieceID string) []chessrules.Square {
	moves := g.pos.LegalMoves(pieceID)
	if moves == nil {
		return []chessrules.Square{}
	}
	return moves
}

// AttemptMove validates and commits a move. Promotion may be empty, in which
// case a pawn reaching the last rank becomes a queen. On error the game is
// unchanged.
func (g *Game) AttemptMove(pieceID, target, promotion string) (MoveResult, error) {
	if g.pos.Status().Terminal() {
		return MoveResult{}, ErrGameAlreadyTerminal
	}
	pc, ok := g.pos.Piece(pieceID)
	if !ok || !pc.Alive {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrUnknownOrDeadPiece, pieceID)
	}
	if pc.Side != g.pos.SideToMove() {
		return MoveResult{}, fmt.Errorf("%w: %s is %s, %s to move", ErrWrongSideToMove, pieceID, pc.Side, g.pos.SideToMove())
	}
	to, err := chessrules.ParseSquare(target)
	if err != nil {
		return MoveResult{}, err
	}
	promo := chessrules.Queen
	if strings.TrimSpace(promotion) != "" {
		if promo, ok = chessrules.ParsePromotion(promotion); !ok {
			return MoveResult{}, fmt.Errorf("%w: %q", ErrInvalidPromotionChoice, promotion)
		}
	}
	if !g.pos.IsLegal(pieceID, to) {
		return MoveResult{}, fmt.Errorf("%w: %s to %s", ErrIllegalTarget, pieceID, to)
	}
	return g.commit(pc, to, promo), nil
}

func (g *Game) commit(pc chessrules.Piece, to chessrules.Square, promo chessrules.Kind) MoveResult {
	ply := Ply{
		Number:  g.pos.FullmoveNumber(),
		Side:    pc.Side,
		PieceID: pc.ID,
		Kind:    pc.Kind,
		From:    pc.Square,
		To:      to,
	}
	u := g.pos.Commit(pc.ID, to, promo)
	if id, ok := u.Captured(g.pos); ok {
		ply.Captured = id
		captured, _ := g.pos.Piece(id)
		g.captured = append(g.captured, captured)
	}
	ply.UCI = strings.ToLower(pc.Square.String() + to.String())
	if k, ok := u.Promoted(g.pos); ok {
		ply.Promotion = strings.ToLower(k.String())
		ply.UCI += strings.ToLower(k.Letter())
	}
	if w, ok := u.Castled(); ok {
		ply.Castle = w.String()
	}
	ply.EnPassant = u.EnPassant()
	ply.Check = g.pos.IsInCheck(g.pos.SideToMove())
	ply.FEN = g.pos.FEN()
	g.history = append(g.history, ply)

	st := g.pos.Status()
	log.Info("Move played", "piece", ply.PieceID, "from", ply.From, "to", ply.To, "captured", ply.Captured, "check", ply.Check, "status", st)
	return MoveResult{Ply: ply, Status: st, Check: ply.Check}
}

// AIInfo describes how the computer chose its move.
type AIInfo struct {
	Difficulty Difficulty    `json:"difficulty"`
	Depth      int           `json:"depth"`
	ThinkTime  time.Duration `json:"-"`
	ThinkMS    int64         `json:"thinkTime"`
	Score      int           `json:"score"`
	Nodes      int           `json:"nodes"`
}

// AIMove is the result of the computer's turn.
type AIMove struct {
	MoveResult
	Info AIInfo `json:"aiInfo"`
}

// HasAI reports whether the game has a computer player.
func (g *Game) HasAI() bool { return g.bot != nil }

// AISide returns the side the computer plays.
func (g *Game) AISide() (chessrules.Side, bool) {
	if g.bot == nil {
		return chessrules.White, false
	}
	return g.bot.Side(), true
}

// AITurn reports whether the computer is due to move.
func (g *Game) AITurn() bool {
	return g.bot != nil && !g.pos.Status().Terminal() && g.pos.SideToMove() == g.bot.Side()
}

// PlayAI lets the computer make its move.
func (g *Game) PlayAI() (AIMove, error) {
	switch {
	case g.bot == nil:
		return AIMove{}, ErrNoAI
	case g.pos.Status().Terminal():
		return AIMove{}, ErrGameAlreadyTerminal
	case g.pos.SideToMove() != g.bot.Side():
		return AIMove{}, ErrNotAITurn
	}
	start := time.Now()
	r, ok := g.bot.Think(g.pos)
	elapsed := time.Since(start)
	if !ok {
		return AIMove{}, ErrGameAlreadyTerminal
	}
	pc, _ := g.pos.Piece(r.Move.PieceID)
	res := g.commit(pc, r.Move.To, chessrules.Queen)
	return AIMove{
		MoveResult: res,
		Info: AIInfo{
			Difficulty: g.diff,
			Depth:      g.bot.Depth(),
			ThinkTime:  elapsed,
			ThinkMS:    elapsed.Milliseconds(),
			Score:      r.Score,
			Nodes:      r.Nodes,
		},
	}, nil
}

// Suggestion is a recommended move.
type Suggestion struct {
	PieceID   string            `json:"pieceId"`
	PieceType chessrules.Kind   `json:"pieceType"`
	From      chessrules.Square `json:"from"`
	To        chessrules.Square `json:"to"`
	Score     int               `json:"score"` // for the requesting side
}

// BestMoveSuggestion searches for the side to move. side only sets the
// point of view of the returned score.
func (g *Game) BestMoveSuggestion(side chessrules.Side, depth int) (Suggestion, bool) {
	if g.pos.Status().Terminal() {
		return Suggestion{}, false
	}
	r := chessbot.Search(g.pos, depth)
	if !r.Found {
		return Suggestion{}, false
	}
	pc, _ := g.pos.Piece(r.Move.PieceID)
	return Suggestion{
		PieceID:   pc.ID,
		PieceType: pc.Kind,
		From:      r.Move.From,
		To:        r.Move.To,
		Score:     r.ScoreFor(side),
	}, true
}

// Hint suggests a move for the side to move at HintDepth.
func (g *Game) Hint() (Suggestion, bool) {
	return g.BestMoveSuggestion(g.pos.SideToMove(), HintDepth)
}

// Resign ends the game with side conceding.
func (g *Game) Resign(side chessrules.Side) error {
	if g.pos.Status().Terminal() {
		return ErrGameAlreadyTerminal
	}
	g.pos.Resign(side)
	log.Info("Game resigned", "side", side)
	return nil
}

func (g *Game) IsInCheck(side chessrules.Side) bool {
	return g.pos.IsInCheck(side)
}

// MaterialValue is the material of side's alive pieces, king included.
func (g *Game) MaterialValue(side chessrules.Side) int {
	return chessbot.Material(g.pos, side)
}

// EvaluatePosition is White's material minus Black's.
func (g *Game) EvaluatePosition() int {
	return g.MaterialValue(chessrules.White) - g.MaterialValue(chessrules.Black)
}

func (g *Game) SideToMove() chessrules.Side { return g.pos.SideToMove() }
func (g *Game) FullmoveNumber() int { return g.pos.FullmoveNumber() }
func (g *Game) HalfmoveClock() int { return g.pos.HalfmoveClock() }
func (g *Game) Status() chessrules.Status { return g.pos.Status() }
func (g *Game) FEN() string { return g.pos.FEN() }

// Position returns a copy of the current position.
func (g *Game) Position() *chessrules.Position { return g.pos.Clone() }

// History returns the committed plies in order.
func (g *Game) History() []Ply {
	return append([]Ply(nil), g.history...)
}

// Captured returns the pieces captured so far, in capture order.
func (g *Game) Captured() []chessrules.Piece {
	return append([]chessrules.Piece(nil), g.captured...)
}
