package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/walterschell/chessbot/chessgame"
)

const (
	DefaultPort          = 3001
	DefaultCORSOrigin    = "http://localhost:5173"
	DefaultAnalysisDepth = 2
)

// Config holds the service settings. Every flag falls back to an
// environment variable.
type Config struct {
	Port          uint
	CORSOrigin    string
	Difficulty    chessgame.Difficulty
	AnalysisDepth int
	AutoReply     bool
}

func loadConfig(args []string) (Config, error) {
	fs := flag.NewFlagSet("chessbot", flag.ContinueOnError)
	port := fs.Uint("port", getenu("PORT", DefaultPort), "port to listen on")
	origin := fs.String("cors-origin", getenv("CHESS_CORS_ORIGIN", DefaultCORSOrigin), "allowed CORS origin")
	difficulty := fs.String("difficulty", getenv("CHESS_AI_DIFFICULTY", chessgame.Medium.String()), "default computer difficulty (easy, medium, hard, expert or 1-5)")
	depth := fs.Int("analysis-depth", int(getenu("CHESS_ANALYSIS_DEPTH", DefaultAnalysisDepth)), "search depth for game analysis")
	autoReply := fs.Bool("auto-reply", getenb("CHESS_AI_AUTOREPLY", true), "let the computer answer a move in the same request")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *port == 0 || *port > 65535 {
		return Config{}, fmt.Errorf("invalid port number %d", *port)
	}
	d, err := chessgame.ParseDifficulty(*difficulty)
	if err != nil {
		return Config{}, err
	}
	if *depth < 1 {
		return Config{}, fmt.Errorf("invalid analysis depth %d", *depth)
	}
	return Config{
		Port:          *port,
		CORSOrigin:    *origin,
		Difficulty:    d,
		AnalysisDepth: *depth,
		AutoReply:     *autoReply,
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenu(key string, def uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32); err == nil {
			return uint(n)
		}
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
