package chessrules

import (
	"fmt"
	"strings"
)

// Side is one of the two players.
type Side uint8

const (
	White Side = iota
	Black
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s == Black {
		return "Black"
	}
	return "White"
}

// suffix is the piece id suffix used for the side ("_W" / "_B").
func (s Side) suffix() string {
	if s == Black {
		return "_B"
	}
	return "_W"
}

// forward is the rank direction pawns of the side advance in.
func (s Side) forward() int {
	if s == Black {
		return -1
	}
	return 1
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	side, ok := ParseSide(string(text))
	if !ok {
		return fmt.Errorf("chessrules: invalid side %q", text)
	}
	*s = side
	return nil
}

// ParseSide accepts "white"/"w" and "black"/"b" in any case.
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w", "_w":
		return White, true
	case "black", "b", "_b":
		return Black, true
	}
	return White, false
}

// Kind is the type of a piece. It changes only when a pawn promotes.
type Kind uint8

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King"}
var kindLetters = [...]string{"P", "N", "B", "R", "Q", "K"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Letter is the upper-case piece letter (P, N, B, R, Q, K).
func (k Kind) Letter() string {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return "?"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(k.String())), nil
}

// IsPromotion reports whether a pawn may promote to k.
func (k Kind) IsPromotion() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

// ParsePromotion accepts a promotion choice as a letter (Q, R, B, N) or a
// name (queen, rook, bishop, knight), case-insensitively.
func ParsePromotion(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "queen":
		return Queen, true
	case "r", "rook":
		return Rook, true
	case "b", "bishop":
		return Bishop, true
	case "n", "knight":
		return Knight, true
	}
	return Queen, false
}

// Piece is a single chess man. Pieces are owned by a Position; the board grid
// only refers to them.
type Piece struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Side     Side   `json:"side"`
	Square   Square `json:"square"`
	Alive    bool   `json:"alive"`
	HasMoved bool   `json:"hasMoved"`
}

func (p Piece) String() string {
	return fmt.Sprintf("%s(%s %s %s)", p.ID, p.Side, p.Kind, p.Square)
}
