package chessgame

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	chess "github.com/corentings/chess/v2"

	"github.com/walterschell/chessbot/chessrules"
)

// ErrInvalidPGN is returned when a PGN cannot be read or replayed.
var ErrInvalidPGN = errors.New("invalid PGN")

func toChessColor(side chessrules.Side) chess.Color {
	if side == chessrules.Black {
		return chess.Black
	}
	return chess.White
}

func (g *Game) playerName(side chessrules.Side) string {
	if g.bot != nil && g.bot.Side() == side {
		return "Computer (" + g.diff.String() + ")"
	}
	return "Human"
}

// newRecord starts a corentings game at fen.
func newRecord(fen string) (*chess.Game, error) {
	if fen == chessrules.StartFEN {
		return chess.NewGame(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	cg := chess.NewGame(opt)
	cg.AddTagPair("SetUp", "1")
	cg.AddTagPair("FEN", fen)
	return cg, nil
}

// PGN exports the game record in Portable Game Notation.
func (g *Game) PGN() (string, error) {
	cg, err := newRecord(g.startFEN)
	if err != nil {
		return "", fmt.Errorf("start position: %w", err)
	}
	cg.AddTagPair("Event", "Casual game")
	cg.AddTagPair("Site", "chessbot")
	cg.AddTagPair("Date", time.Now().Format("2006.01.02"))
	cg.AddTagPair("Round", "-")
	cg.AddTagPair("White", g.playerName(chessrules.White))
	cg.AddTagPair("Black", g.playerName(chessrules.Black))
	for k, v := range g.tags {
		cg.AddTagPair(k, v)
	}

	for i, ply := range g.history {
		m, err := chess.UCINotation{}.Decode(cg.Position(), ply.UCI)
		if err != nil {
			return "", fmt.Errorf("ply %d %s: %w", i+1, ply.UCI, err)
		}
		san := chess.AlgebraicNotation{}.Encode(cg.Position(), m)
		if err := cg.PushMove(san, &chess.PushMoveOptions{ForceMainline: true}); err != nil {
			log.Error("Error recording move", "error", err, "ply", i+1, "san", san, "position", cg.Position().String())
			return "", fmt.Errorf("ply %d %s: %w", i+1, san, err)
		}
	}

	st := g.pos.Status()
	switch st.Kind {
	case chessrules.Resignation:
		cg.Resign(toChessColor(st.Winner.Opposite()))
	case chessrules.Draw:
		if cg.Outcome() == chess.NoOutcome {
			method := chess.DrawOffer
			if st.Reason == chessrules.FiftyMoveRule {
				method = chess.FiftyMoveRule
			}
			if err := cg.Draw(method); err != nil {
				log.Warn("Falling back to agreed draw", "error", err)
				_ = cg.Draw(chess.DrawOffer)
			}
		}
	}
	if st.Terminal() {
		cg.AddTagPair("Termination", st.String())
	}
	cg.AddTagPair("Result", cg.Outcome().String())
	return cg.String(), nil
}

// ReadPGN parses the first game of a PGN record. Bare movetext without a
// tag section is accepted.
func ReadPGN(r io.Reader) (*chess.Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPGN, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidPGN)
	}
	if !strings.HasPrefix(text, "[") {
		text = "[Event \"?\"]\n\n" + text
	}
	pgnOpt, err := chess.PGN(strings.NewReader(text + "\n"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPGN, err)
	}
	return chess.NewGame(pgnOpt), nil
}

// LoadPGN replays the main line of a PGN game. The replayed moves go through
// the same validation as AttemptMove, so a record with an illegal move is
// rejected. A resignation in the record is carried over.
func LoadPGN(r io.Reader, opts ...Option) (*Game, error) {
	cg, err := ReadPGN(r)
	if err != nil {
		return nil, err
	}

	start := chessrules.StartFEN
	if fen := cg.GetTagPair("FEN"); fen != "" {
		start = fen
	}
	g, err := NewGame(append([]Option{WithPosition(start)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPGN, err)
	}
	running, err := newRecord(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPGN, err)
	}

	for i, m := range cg.Moves() {
		uci := chess.UCINotation{}.Encode(running.Position(), m)
		san := chess.AlgebraicNotation{}.Encode(running.Position(), m)
		if _, err := g.PlayUCI(uci); err != nil {
			return nil, fmt.Errorf("%w: ply %d %s: %w", ErrInvalidPGN, i+1, san, err)
		}
		if err := running.PushMove(san, &chess.PushMoveOptions{ForceMainline: true}); err != nil {
			return nil, fmt.Errorf("%w: ply %d %s: %w", ErrInvalidPGN, i+1, san, err)
		}
	}

	if cg.Method() == chess.Resignation && !g.pos.Status().Terminal() {
		loser := chessrules.White
		if cg.Outcome() == chess.WhiteWon {
			loser = chessrules.Black
		}
		g.pos.Resign(loser)
	}
	log.Info("PGN loaded", "plies", len(g.history), "status", g.pos.Status())
	return g, nil
}

// PlayUCI plays a move given in UCI coordinates, e.g. "e2e4" or "e7e8q",
// with the same validation as AttemptMove.
func (g *Game) PlayUCI(uci string) (MoveResult, error) {
	uci = strings.TrimSpace(uci)
	if len(uci) < 4 || len(uci) > 5 {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrInvalidSquareText, uci)
	}
	from, err := chessrules.ParseSquare(uci[:2])
	if err != nil {
		return MoveResult{}, err
	}
	pc, ok := g.pos.PieceAt(from)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: no piece on %s", ErrUnknownOrDeadPiece, from)
	}
	return g.AttemptMove(pc.ID, uci[2:4], uci[4:])
}
