package chessrules

import "encoding/json"

// StatusKind says whether a game is still running and, if not, how it ended.
type StatusKind uint8

const (
	InProgress StatusKind = iota
	Checkmate
	Stalemate
	Draw
	Resignation
)

var statusNames = [...]string{"in_progress", "checkmate", "stalemate", "draw", "resignation"}

func (k StatusKind) String() string {
	if int(k) < len(statusNames) {
		return statusNames[k]
	}
	return "unknown"
}

func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DrawReason qualifies a Draw status.
type DrawReason uint8

const (
	NoDrawReason DrawReason = iota
	FiftyMoveRule
	InsufficientMaterial
)

var drawReasonNames = [...]string{"", "fifty_move_rule", "insufficient_material"}

func (r DrawReason) String() string {
	if int(r) < len(drawReasonNames) {
		return drawReasonNames[r]
	}
	return "unknown"
}

func (r DrawReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Status is the terminal state of a position. Winner is meaningful only for
// Checkmate and Resignation, Reason only for Draw.
type Status struct {
	Kind   StatusKind
	Winner Side
	Reason DrawReason
}

// Terminal reports whether the game is over.
func (s Status) Terminal() bool {
	return s.Kind != InProgress
}

// HasWinner reports whether the game ended with a winner.
func (s Status) HasWinner() bool {
	return s.Kind == Checkmate || s.Kind == Resignation
}

func (s Status) String() string {
	switch s.Kind {
	case Checkmate, Resignation:
		return s.Kind.String() + " (" + s.Winner.String() + " wins)"
	case Draw:
		return s.Kind.String() + " (" + s.Reason.String() + ")"
	}
	return s.Kind.String()
}

type statusJSON struct {
	Kind   StatusKind  `json:"kind"`
	Winner *Side       `json:"winner,omitempty"`
	Reason *DrawReason `json:"reason,omitempty"`
}

// MarshalJSON writes the winner only when there is one and the reason only
// for draws.
func (s Status) MarshalJSON() ([]byte, error) {
	out := statusJSON{Kind: s.Kind}
	if s.HasWinner() {
		out.Winner = &s.Winner
	}
	if s.Kind == Draw {
		out.Reason = &s.Reason
	}
	return json.Marshal(out)
}

// UpdateStatus recomputes the terminal status for the side to move. A
// terminal status is sticky and is never recomputed.
func (p *Position) UpdateStatus() {
	if p.status.Terminal() {
		return
	}
	side := p.side
	if !p.hasLegalMove(side) {
		if p.IsInCheck(side) {
			p.status = Status{Kind: Checkmate, Winner: side.Opposite()}
		} else {
			p.status = Status{Kind: Stalemate}
		}
		return
	}
	if p.halfmove >= 100 {
		p.status = Status{Kind: Draw, Reason: FiftyMoveRule}
		return
	}
	if p.insufficientMaterial() {
		p.status = Status{Kind: Draw, Reason: InsufficientMaterial}
	}
}

// Resign ends the game in favour of the opponent of side. It does nothing
// once the game is over.
func (p *Position) Resign(side Side) {
	if p.status.Terminal() {
		return
	}
	p.status = Status{Kind: Resignation, Winner: side.Opposite()}
}

func (p *Position) hasLegalMove(side Side) bool {
	var buf [32]Square
	for i := range p.pieces {
		pc := &p.pieces[i]
		if !pc.Alive || pc.Side != side {
			continue
		}
		for _, to := range p.pseudoLegal(i, buf[:0]) {
			if p.isLegal(i, to) {
				return true
			}
		}
	}
	return false
}

// insufficientMaterial covers bare kings, a single minor piece, and two
// knights with nothing else on the board.
func (p *Position) insufficientMaterial() bool {
	var minors, knights, others int
	for i := range p.pieces {
		pc := &p.pieces[i]
		if !pc.Alive || pc.Kind == King {
			continue
		}
		switch pc.Kind {
		case Knight:
			knights++
			minors++
		case Bishop:
			minors++
		default:
			others++
		}
	}
	if others > 0 {
		return false
	}
	switch minors {
	case 0, 1:
		return true
	case 2:
		return knights == 2
	}
	return false
}
