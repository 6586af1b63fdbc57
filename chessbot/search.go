package chessbot

import (
	"log/slog"
	"time"

	"github.com/walterschell/chessbot/chessrules"
)

var log = slog.Default().With("package", "chessbot")

const infinity = 1 << 30

// Result is the outcome of a root search.
type Result struct {
	Move  chessrules.Move
	Score int // for Side, the side to move
	Side  chessrules.Side
	Nodes int
	Found bool
}

// ScoreFor returns the score from side's point of view.
func (r Result) ScoreFor(side chessrules.Side) int {
	if side == r.Side {
		return r.Score
	}
	return -r.Score
}

type searcher struct {
	pos   *chessrules.Position
	nodes int
}

// Search finds the best move for the side to move, looking depth plies
// ahead. The position is not modified. Depths below one are searched as one.
// Ties go to the first move in root order.
func Search(pos *chessrules.Position, depth int) Result {
	if depth < 1 {
		depth = 1
	}
	s := &searcher{pos: pos.Clone()}
	side := pos.SideToMove()
	res := Result{Side: side}
	s.nodes++
	if pos.Status().Terminal() {
		res.Score = Evaluate(pos, side)
		res.Nodes = s.nodes
		return res
	}

	moves := OrderMoves(pos, pos.LegalMovesFor(side))
	alpha := -infinity
	best := -infinity
	for _, m := range moves {
		score := s.child(m, depth-1, alpha, infinity)
		if score > best {
			best, res.Move, res.Found = score, m, true
		}
		alpha = max(alpha, score)
	}
	if !res.Found {
		best = Evaluate(pos, side)
	}
	res.Score = best
	res.Nodes = s.nodes
	return res
}

// BestMove returns the move the engine would play in pos. The search always
// covers the side to move; side only selects the point of view and does not
// change the chosen move.
func BestMove(pos *chessrules.Position, side chessrules.Side, depth int) (chessrules.Move, bool) {
	r := Search(pos, depth)
	if side != r.Side {
		log.Debug("best move requested for the side not to move", "side", side, "toMove", r.Side)
	}
	return r.Move, r.Found
}

// ScoreMove returns the value of playing m for its mover, searching depth
// plies in total including m itself.
func ScoreMove(pos *chessrules.Position, m chessrules.Move, depth int) int {
	if depth < 1 {
		depth = 1
	}
	s := &searcher{pos: pos.Clone()}
	return s.child(m, depth-1, -infinity, infinity)
}

// child plays m, scores the reply tree from the mover's point of view, and
// takes m back.
func (s *searcher) child(m chessrules.Move, depth, alpha, beta int) int {
	u := s.pos.Make(m.PieceID, m.To, chessrules.Queen)
	s.pos.UpdateStatus()
	score := -s.negamax(depth, -beta, -alpha)
	s.pos.Unmake(u)
	return score
}

// negamax is fail-soft: the returned value may lie outside (alpha, beta).
func (s *searcher) negamax(depth, alpha, beta int) int {
	s.nodes++
	p := s.pos
	if depth == 0 || p.Status().Terminal() {
		return Evaluate(p, p.SideToMove())
	}
	best := -infinity
	for _, m := range p.LegalMovesFor(p.SideToMove()) {
		score := s.child(m, depth-1, alpha, beta)
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	if best == -infinity {
		return Evaluate(p, p.SideToMove())
	}
	return best
}

// Minimax returns the value of pos for the side to move and the number of
// nodes visited, searching every branch without pruning.
func Minimax(pos *chessrules.Position, depth int) (score, nodes int) {
	if depth < 1 {
		depth = 1
	}
	s := &searcher{pos: pos.Clone()}
	score = s.minimax(depth)
	return score, s.nodes
}

func (s *searcher) minimax(depth int) int {
	s.nodes++
	p := s.pos
	if depth == 0 || p.Status().Terminal() {
		return Evaluate(p, p.SideToMove())
	}
	best := -infinity
	for _, m := range p.LegalMovesFor(p.SideToMove()) {
		u := p.Make(m.PieceID, m.To, chessrules.Queen)
		p.UpdateStatus()
		best = max(best, -s.minimax(depth-1))
		p.Unmake(u)
	}
	if best == -infinity {
		return Evaluate(p, p.SideToMove())
	}
	return best
}

// Bot plays one side at a fixed search depth.
type Bot struct {
	side  chessrules.Side
	depth int
	log   *slog.Logger
}

type Option func(*Bot)

// WithDepth sets the search depth in plies.
func WithDepth(depth int) Option {
	return func(b *Bot) {
		b.depth = depth
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		b.log = l
	}
}

// DefaultDepth is the depth of a Bot created without WithDepth.
const DefaultDepth = 3

func New(side chessrules.Side, opts ...Option) *Bot {
	b := &Bot{side: side, depth: DefaultDepth, log: log}
	for _, opt := range opts {
		opt(b)
	}
	if b.depth < 1 {
		b.depth = 1
	}
	return b
}

func (b *Bot) Side() chessrules.Side { return b.side }
func (b *Bot) Depth() int { return b.depth }

// Think searches pos for the bot's move. It reports false when it is not
// the bot's turn or there is nothing to play.
func (b *Bot) Think(pos *chessrules.Position) (Result, bool) {
	if pos.SideToMove() != b.side || pos.Status().Terminal() {
		return Result{}, false
	}
	start := time.Now()
	r := Search(pos, b.depth)
	b.log.Info("Search complete", "side", b.side, "depth", b.depth, "move", r.Move, "score", r.Score, "nodes", r.Nodes, "elapsed", time.Since(start))
	return r, r.Found
}
