package chessrules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSquareText is returned when text does not name a board square.
var ErrInvalidSquareText = errors.New("invalid square text")

const (
	files = "ABCDEFGH"
	ranks = "12345678"
)

// Square is a board coordinate. File 0..7 is A..H, Rank 0..7 is 1..8.
type Square struct {
	File int
	Rank int
}

// Sq is shorthand for Square{File: file, Rank: rank}.
func Sq(file, rank int) Square {
	return Square{File: file, Rank: rank}
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.File >= 0 && s.File < 8 && s.Rank >= 0 && s.Rank < 8
}

func (s Square) offset(df, dr int) Square {
	return Square{File: s.File + df, Rank: s.Rank + dr}
}

// String returns the upper-case name of the square, e.g. "E4".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Square(%d,%d)", s.File, s.Rank)
	}
	return string([]byte{files[s.File], ranks[s.Rank]})
}

// ParseSquare parses text matching ^[A-H][1-8]$ after trimming and
// upper-casing.
func ParseSquare(text string) (Square, error) {
	t := strings.ToUpper(strings.TrimSpace(text))
	if len(t) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquareText, text)
	}
	f := strings.IndexByte(files, t[0])
	r := strings.IndexByte(ranks, t[1])
	if f < 0 || r < 0 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquareText, text)
	}
	return Square{File: f, Rank: r}, nil
}

func (s Square) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("chessrules: square off board: %d,%d", s.File, s.Rank)
	}
	return []byte(s.String()), nil
}

func (s *Square) UnmarshalText(text []byte) error {
	sq, err := ParseSquare(string(text))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}
