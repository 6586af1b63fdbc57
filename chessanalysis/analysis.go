package chessanalysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	chess "github.com/corentings/chess/v2"

	"github.com/walterschell/chessbot/chessgame"
	"github.com/walterschell/chessbot/chessrules"
)

type MoveClassification int

const (
	Neutral MoveClassification = iota
	Blunder
	Questionable
	Good
	Excellent
	Winning
)

var classificationNames = [...]struct{ name, symbol string }{
	Neutral:      {"Neutral", ""},
	Blunder:      {"Blunder", "??"},
	Questionable: {"Questionable", "?"},
	Good:         {"Good", "!"},
	Excellent:    {"Excellent", "!!"},
	Winning:      {"Winning", "⩲"},
}

func (c MoveClassification) String() string { return classificationNames[c].name }

// Symbol is the annotation glyph for the classification.
func (c MoveClassification) Symbol() string { return classificationNames[c].symbol }

// MoveAnalysis grades one played move. Scores are in pawns from White's
// side, probabilities are for the player who moved.
type MoveAnalysis struct {
	MoveNumber                   int                `json:"moveNumber"`
	Color                        string             `json:"color"`
	MoveText                     string             `json:"moveText"`
	Score                        float64            `json:"score"`
	CentipawnDifference          float64            `json:"centipawnDifference"`
	WinningProbability           float64            `json:"winningProbability"`
	WinningProbabilityDifference float64            `json:"winningProbabilityDifference"`
	Classification               MoveClassification `json:"-"`
	IsBestMove                   bool               `json:"isBestMove"`
	BestMove                     string             `json:"bestMove"`
	BestMoveSAN                  string             `json:"bestMoveSAN"`
	BestMoveScore                float64            `json:"bestMoveScore"`
}

func (m *MoveAnalysis) String() string {
	return fmt.Sprintf("Move %d: %s (Score: %.2f, Centipawn Difference: %.2f, Classification: %s, Is Best Move: %t)",
		m.MoveNumber, m.MoveText, m.Score, m.CentipawnDifference, m.Classification, m.IsBestMove)
}

// MarshalJSON adds the classification name and its symbol.
func (m *MoveAnalysis) MarshalJSON() ([]byte, error) {
	type fields MoveAnalysis
	return json.Marshal(struct {
		*fields
		Classification       string `json:"classification"`
		ClassificationSymbol string `json:"classificationSymbol"`
	}{(*fields)(m), m.Classification.String(), m.Classification.Symbol()})
}

// classifyMove grades a move by how far its winning probability falls
// short of (or beats) the engine's choice.
func classifyMove(winProb, bestWinProb float64) MoveClassification {
	switch d := winProb - bestWinProb; {
	case d <= -0.2:
		return Blunder
	case d <= -0.1:
		return Questionable
	case d >= 0.1:
		return Excellent
	case d >= 0.05:
		return Good
	case winProb >= 0.95:
		return Winning
	}
	return Neutral
}

type AnalyzeChessGameOptions struct {
	Depth int
}

type AnalyzeChessGameOption func(*AnalyzeChessGameOptions)

// WithDepth sets the search depth used to grade each move. The default is 2.
func WithDepth(depth int) AnalyzeChessGameOption {
	return func(opts *AnalyzeChessGameOptions) {
		opts.Depth = depth
	}
}

// replay walks a recorded game, keeping a corentings game for notation and
// an Engine for the grading.
type replay struct {
	notation *chess.Game
	engine   *Engine
	played   []string
	depth    int
}

func newReplay(game *chess.Game, depth int) (*replay, error) {
	start := chessrules.StartFEN
	notation := chess.NewGame()
	if fen := game.GetTagPair("FEN"); fen != "" {
		opt, err := chess.FEN(fen)
		if err != nil {
			return nil, fmt.Errorf("error reading start position: %w", err)
		}
		start, notation = fen, chess.NewGame(opt)
	}
	engine, err := NewEngine(start)
	if err != nil {
		return nil, err
	}
	return &replay{notation: notation, engine: engine, depth: depth}, nil
}

// step grades the ply-th move (zero based) and then plays it.
func (r *replay) step(ply int, mv *chess.Move) (*MoveAnalysis, error) {
	before := r.notation.Position()
	san := chess.AlgebraicNotation{}.Encode(before, mv)
	uci := chess.UCINotation{}.Encode(before, mv)
	r.played = append(r.played, uci)

	a := &MoveAnalysis{MoveNumber: ply/2 + 1, Color: "White", MoveText: san}
	if before.Turn() == chess.Black {
		a.Color = "Black"
	}
	res, err := r.engine.analyzeLastMove(r.played, r.depth)
	if err != nil {
		return nil, fmt.Errorf("analysis error at move %d: %w", a.MoveNumber, err)
	}

	a.BestMove = res.BestMove
	a.IsBestMove = res.BestMove == uci
	if best, err := (chess.UCINotation{}).Decode(before, res.BestMove); err != nil {
		log.Error("Error parsing best move", "error", err, "bestMove", res.BestMove)
	} else {
		a.BestMoveSAN = chess.AlgebraicNotation{}.Encode(before, best)
	}

	sign := 1.0
	if a.Color == "Black" {
		sign = -1
	}
	a.Score, a.BestMoveScore = sign*res.Score, sign*res.BestMoveScore
	a.CentipawnDifference = (res.BestMoveScore - res.Score) * 100
	a.WinningProbability = res.WinProb
	a.WinningProbabilityDifference = res.WinProb - res.BestMoveWinProb
	a.Classification = classifyMove(res.WinProb, res.BestMoveWinProb)

	if err := r.notation.PushMove(san, &chess.PushMoveOptions{ForceMainline: true}); err != nil {
		log.Error("Error moving in running game", "error", err, "move", mv.String(), "san", san, "position", before.String())
		return nil, fmt.Errorf("error moving in running game: %w", err)
	}
	return a, nil
}

// AnalyzeChessGameStreaming grades the moves of a PGN game one at a time.
// The moves channel is closed when the game ends, an error occurs or ctx
// is done; the error channel then yields at most one error.
func AnalyzeChessGameStreaming(ctx context.Context, pgn string, opts ...AnalyzeChessGameOption) (<-chan *MoveAnalysis, <-chan error) {
	o := AnalyzeChessGameOptions{Depth: 2}
	for _, opt := range opts {
		opt(&o)
	}

	results := make(chan *MoveAnalysis)
	errc := make(chan error, 1)
	if strings.TrimSpace(pgn) == "" {
		errc <- errors.New("empty PGN")
		close(results)
		close(errc)
		return results, errc
	}

	go func() {
		defer close(errc)
		defer close(results)

		game, err := chessgame.ReadPGN(strings.NewReader(pgn))
		if err != nil {
			log.Error("Error parsing PGN", "error", err)
			errc <- fmt.Errorf("error parsing PGN: %w", err)
			return
		}
		r, err := newReplay(game, o.Depth)
		if err != nil {
			errc <- err
			return
		}
		moves := game.Moves()
		log.Info("Analysing game", "moves", len(moves), "depth", o.Depth)

		for ply, mv := range moves {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			a, err := r.step(ply, mv)
			if err != nil {
				errc <- err
				return
			}
			select {
			case results <- a:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return results, errc
}

// AnalyzeChessGame grades every move of a PGN game.
func AnalyzeChessGame(ctx context.Context, pgn string, opts ...AnalyzeChessGameOption) ([]MoveAnalysis, error) {
	moves, errc := AnalyzeChessGameStreaming(ctx, pgn, opts...)
	var results []MoveAnalysis
	for m := range moves {
		results = append(results, *m)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	log.Info("Analysis complete", "moves", len(results))
	return results, nil
}
