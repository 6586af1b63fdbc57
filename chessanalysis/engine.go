package chessanalysis

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/walterschell/chessbot/chessbot"
	"github.com/walterschell/chessbot/chessgame"
	"github.com/walterschell/chessbot/chessrules"
)

var log = slog.Default().With("package", "chessanalysis")

type AnalysisResult struct {
	Score           float64
	WinProb         float64
	BestMove        string
	BestMoveScore   float64
	BestMoveWinProb float64
	Nodes           int
}

// Engine grades played moves with the in-process search. It follows the
// game one move at a time, so the move lists passed to analyzeLastMove must
// extend the previous one.
type Engine struct {
	startFEN string
	game     *chessgame.Game
	played   []string
}

// NewEngine starts an engine at the given position.
func NewEngine(startFEN string) (*Engine, error) {
	g, err := chessgame.NewGame(chessgame.WithPosition(startFEN))
	if err != nil {
		return nil, fmt.Errorf("failed to set up position: %w", err)
	}
	return &Engine{startFEN: startFEN, game: g}, nil
}

// sync brings the engine's game to the position after moves.
func (e *Engine) sync(moves []string) error {
	if len(moves) < len(e.played) || !slices.Equal(moves[:len(e.played)], e.played) {
		g, err := chessgame.NewGame(chessgame.WithPosition(e.startFEN))
		if err != nil {
			return err
		}
		e.game, e.played = g, nil
	}
	for _, m := range moves[len(e.played):] {
		if _, err := e.game.PlayUCI(m); err != nil {
			return fmt.Errorf("move %s: %w", m, err)
		}
		e.played = append(e.played, m)
	}
	return nil
}

func toUCI(pos *chessrules.Position, m chessrules.Move) string {
	s := strings.ToLower(m.From.String() + m.To.String())
	if pc, ok := pos.Piece(m.PieceID); ok && pc.Kind == chessrules.Pawn && (m.To.Rank == 0 || m.To.Rank == 7) {
		s += "q"
	}
	return s
}

func fromUCI(pos *chessrules.Position, uci string) (chessrules.Move, error) {
	if len(uci) < 4 {
		return chessrules.Move{}, fmt.Errorf("bad move %q", uci)
	}
	from, err := chessrules.ParseSquare(uci[:2])
	if err != nil {
		return chessrules.Move{}, err
	}
	to, err := chessrules.ParseSquare(uci[2:4])
	if err != nil {
		return chessrules.Move{}, err
	}
	pc, ok := pos.PieceAt(from)
	if !ok {
		return chessrules.Move{}, fmt.Errorf("no piece on %s", from)
	}
	return chessrules.Move{PieceID: pc.ID, From: from, To: to}, nil
}

// analyzeLastMove compares the last of moves with the engine's choice in
// the position before it. Scores are in pawns for the side that moved.
func (e *Engine) analyzeLastMove(moves []string, depth int) (*AnalysisResult, error) {
	if len(moves) == 0 {
		return nil, fmt.Errorf("no moves provided")
	}
	lastMove := moves[len(moves)-1]
	if err := e.sync(moves[:len(moves)-1]); err != nil {
		return nil, err
	}

	pos := e.game.Position()
	best := chessbot.Search(pos, depth)
	if !best.Found {
		return nil, fmt.Errorf("no legal moves before %s", lastMove)
	}
	result := &AnalysisResult{
		BestMove:      toUCI(pos, best.Move),
		BestMoveScore: float64(best.Score) / 100,
		Nodes:         best.Nodes,
	}
	result.BestMoveWinProb = calculateWinningProbability(float64(best.Score))

	if result.BestMove == lastMove {
		result.Score = result.BestMoveScore
		result.WinProb = result.BestMoveWinProb
	} else {
		m, err := fromUCI(pos, lastMove)
		if err != nil {
			return nil, err
		}
		if !pos.IsLegal(m.PieceID, m.To) {
			return nil, fmt.Errorf("illegal move %s", lastMove)
		}
		cp := chessbot.ScoreMove(pos, m, depth)
		result.Score = float64(cp) / 100
		result.WinProb = calculateWinningProbability(float64(cp))
	}
	log.Debug("Move analysed", "move", lastMove, "best", result.BestMove, "score", result.Score, "bestScore", result.BestMoveScore, "nodes", result.Nodes)
	return result, nil
}

// calculateWinningProbability converts centipawn score to winning probability
// using a logistic function
func calculateWinningProbability(score float64) float64 {
	return 1.0 / (1.0 + math.Exp(-score/100.0))
}
