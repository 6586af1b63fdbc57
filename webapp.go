package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/walterschell/chessbot/chessanalysis"
	"github.com/walterschell/chessbot/chessgame"
	"github.com/walterschell/chessbot/chessrules"
)

var log = slog.Default().With("package", "main")

const (
	maxBodyBytes int64 = 1 << 20
	writeWait          = 5 * time.Second
)

func stdoutLogger(next http.Handler) http.Handler {
	return handlers.LoggingHandler(os.Stdout, next)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	log.Error("Handler panic", "panic", fmt.Sprint(v...))
}

type Client struct {
	conn        *websocket.Conn
	application *Application
	writeLock   sync.Mutex
}

func (c *Client) send(message []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

type Application struct {
	router  *mux.Router
	handler http.Handler
	config  Config

	gameLock sync.Mutex
	game     *chessgame.Game
	seq      uint64

	clients     map[*Client]struct{}
	clientsLock sync.RWMutex
	upgrader    websocket.Upgrader
}

func NewApplication(cfg Config) (*Application, error) {
	game, err := chessgame.NewGame()
	if err != nil {
		return nil, err
	}
	result := Application{
		router:  mux.NewRouter(),
		config:  cfg,
		game:    game,
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	result.router.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	api := result.router.PathPrefix("/chess").Subrouter()
	api.HandleFunc("/initialize", result.initializeHandler).Methods(http.MethodPost)
	api.HandleFunc("/board", result.boardHandler).Methods(http.MethodGet)
	api.HandleFunc("/move", result.moveHandler).Methods(http.MethodPost)
	api.HandleFunc("/moves/{pieceId}", result.movesHandler).Methods(http.MethodGet)
	api.HandleFunc("/ai-move", result.aiMoveHandler).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/hint", result.hintHandler).Methods(http.MethodGet)
	api.HandleFunc("/status", result.statusHandler).Methods(http.MethodGet)
	api.HandleFunc("/resign", result.resignHandler).Methods(http.MethodPost)
	api.HandleFunc("/pgn", result.pgnHandler).Methods(http.MethodGet)
	api.HandleFunc("/pgn", result.loadPGNHandler).Methods(http.MethodPost)
	api.HandleFunc("/analysis", result.analysisHandler).Methods(http.MethodGet)
	result.router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	result.router.HandleFunc("/ws", result.wsHandler)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.CORSOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))
	result.handler = stdoutLogger(recovery(cors(result.router)))
	return &result, nil
}

func (app *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.handler.ServeHTTP(w, r)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// errorStatus maps game errors to HTTP status codes. Malformed requests are
// 400, requests that do not fit the current game are 409.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, chessgame.ErrInvalidSquareText),
		errors.Is(err, chessgame.ErrInvalidPromotionChoice),
		errors.Is(err, chessgame.ErrInvalidDifficulty),
		errors.Is(err, chessgame.ErrInvalidPGN),
		errors.Is(err, chessgame.ErrUnknownOrDeadPiece),
		errors.Is(err, chessgame.ErrIllegalTarget),
		errors.Is(err, chessrules.ErrInvalidFEN):
		return http.StatusBadRequest
	case errors.Is(err, chessgame.ErrWrongSideToMove),
		errors.Is(err, chessgame.ErrGameAlreadyTerminal),
		errors.Is(err, chessgame.ErrNotAITurn),
		errors.Is(err, chessgame.ErrNoAI):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeGameError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// replyAI plays the computer's move if it is due. Callers hold gameLock.
func (app *Application) replyAI() (*chessgame.AIMove, error) {
	if !app.game.AITurn() {
		return nil, nil
	}
	mv, err := app.game.PlayAI()
	if err != nil {
		return nil, err
	}
	log.Info("Computer moved", "piece", mv.Ply.PieceID, "to", mv.Ply.To, "score", mv.Info.Score, "thinkTime", mv.Info.ThinkTime)
	return &mv, nil
}

type initializeRequest struct {
	VsAI         bool   `json:"vsAI"`
	PlayerSide   string `json:"playerSide"`
	AIDifficulty int    `json:"aiDifficulty"`
	FEN          string `json:"fen"`
}

func (app *Application) initializeHandler(w http.ResponseWriter, r *http.Request) {
	var body initializeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	var opts []chessgame.Option
	if body.FEN != "" {
		opts = append(opts, chessgame.WithPosition(body.FEN))
	}
	if body.VsAI {
		player := chessrules.White
		if body.PlayerSide != "" {
			side, ok := chessrules.ParseSide(body.PlayerSide)
			if !ok {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid player side %q", body.PlayerSide))
				return
			}
			player = side
		}
		difficulty := app.config.Difficulty
		if body.AIDifficulty != 0 {
			difficulty = chessgame.Difficulty(body.AIDifficulty)
		}
		opts = append(opts, chessgame.WithAI(player.Opposite(), difficulty))
	}
	game, err := chessgame.NewGame(opts...)
	if err != nil {
		writeGameError(w, err)
		return
	}

	app.gameLock.Lock()
	app.game = game
	aiMove, err := app.replyAI()
	state := app.publishLocked()
	app.gameLock.Unlock()
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "Game initialized successfully",
		"aiMove":    aiMove,
		"gameState": state,
	})
}

func (app *Application) boardHandler(w http.ResponseWriter, r *http.Request) {
	app.gameLock.Lock()
	state := app.game.State()
	app.gameLock.Unlock()
	writeJSON(w, http.StatusOK, state)
}

type moveRequest struct {
	PieceID      string `json:"pieceId"`
	TargetSquare string `json:"targetSquare"`
	Promotion    string `json:"promotion"`
}

func moveMessage(res chessgame.MoveResult) string {
	if res.Ply.Captured != "" {
		return "Captured " + res.Ply.Captured
	}
	return "Move executed successfully"
}

func (app *Application) moveHandler(w http.ResponseWriter, r *http.Request) {
	var body moveRequest
	if !decodeBody(w, r, &body) {
		return
	}

	app.gameLock.Lock()
	if app.game.AITurn() {
		app.gameLock.Unlock()
		writeGameError(w, fmt.Errorf("%w: waiting for the computer", chessgame.ErrWrongSideToMove))
		return
	}
	res, err := app.game.AttemptMove(body.PieceID, body.TargetSquare, body.Promotion)
	if err != nil {
		app.gameLock.Unlock()
		writeGameError(w, err)
		return
	}
	var aiMove *chessgame.AIMove
	if app.config.AutoReply {
		aiMove, err = app.replyAI()
	}
	state := app.publishLocked()
	app.gameLock.Unlock()
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   moveMessage(res),
		"move":      res,
		"aiMove":    aiMove,
		"gameState": state,
	})
}

func (app *Application) movesHandler(w http.ResponseWriter, r *http.Request) {
	pieceID := mux.Vars(r)["pieceId"]
	app.gameLock.Lock()
	moves := app.game.LegalMoves(pieceID)
	app.gameLock.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"pieceId": pieceID, "moves": moves})
}

func (app *Application) aiMoveHandler(w http.ResponseWriter, r *http.Request) {
	app.gameLock.Lock()
	mv, err := app.game.PlayAI()
	if err != nil {
		app.gameLock.Unlock()
		writeGameError(w, err)
		return
	}
	state := app.publishLocked()
	app.gameLock.Unlock()

	message := "AI move executed"
	if mv.Ply.Captured != "" {
		message = "AI captured " + mv.Ply.Captured
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   message,
		"move":      mv.MoveResult,
		"aiInfo":    mv.Info,
		"gameState": state,
	})
}

func (app *Application) hintHandler(w http.ResponseWriter, r *http.Request) {
	app.gameLock.Lock()
	hint, ok := app.game.Hint()
	app.gameLock.Unlock()
	if !ok {
		writeError(w, http.StatusConflict, "no hint available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "hint": hint})
}

func (app *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	app.gameLock.Lock()
	state := app.game.State()
	app.gameLock.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"currentTurn":    state.CurrentTurn,
		"status":         state.Status,
		"gameOver":       state.GameOver,
		"winner":         state.Winner,
		"check":          state.Check,
		"capturedPieces": state.CapturedPieces,
	})
}

type resignRequest struct {
	Side string `json:"side"`
}

func (app *Application) resignHandler(w http.ResponseWriter, r *http.Request) {
	var body resignRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	app.gameLock.Lock()
	side := app.game.SideToMove()
	if aiSide, ok := app.game.AISide(); ok {
		side = aiSide.Opposite()
	}
	if body.Side != "" {
		s, ok := chessrules.ParseSide(body.Side)
		if !ok {
			app.gameLock.Unlock()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid side %q", body.Side))
			return
		}
		side = s
	}
	if err := app.game.Resign(side); err != nil {
		app.gameLock.Unlock()
		writeGameError(w, err)
		return
	}
	state := app.publishLocked()
	app.gameLock.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "gameState": state})
}

func (app *Application) currentPGN() (string, error) {
	app.gameLock.Lock()
	defer app.gameLock.Unlock()
	return app.game.PGN()
}

func (app *Application) pgnHandler(w http.ResponseWriter, r *http.Request) {
	pgn, err := app.currentPGN()
	if err != nil {
		writeGameError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	_, _ = w.Write([]byte(pgn))
}

// loadPGNHandler replaces the game with a recorded one. The computer player,
// if any, keeps its side and difficulty.
func (app *Application) loadPGNHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	app.gameLock.Lock()
	var opts []chessgame.Option
	if current := app.game.State(); current.VsAI && current.AISide != nil {
		opts = append(opts, chessgame.WithAI(*current.AISide, current.Difficulty))
	}
	app.gameLock.Unlock()

	game, err := chessgame.LoadPGN(r.Body, opts...)
	if err != nil {
		writeGameError(w, err)
		return
	}
	app.gameLock.Lock()
	app.game = game
	state := app.publishLocked()
	app.gameLock.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "gameState": state})
}

// analysisHandler streams one JSON object per analysed move.
func (app *Application) analysisHandler(w http.ResponseWriter, r *http.Request) {
	depth := app.config.AnalysisDepth
	if v := r.URL.Query().Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > 5 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid depth %q", v))
			return
		}
		depth = d
	}
	pgn, err := app.currentPGN()
	if err != nil {
		writeGameError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	moves, errc := chessanalysis.AnalyzeChessGameStreaming(ctx, pgn, chessanalysis.WithDepth(depth))
	for move := range moves {
		if err := enc.Encode(move); err != nil {
			log.Warn("Analysis client went away", "error", err)
			cancel()
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	switch err := <-errc; {
	case errors.Is(err, context.Canceled):
		log.Info("Analysis cancelled")
	case err != nil:
		log.Error("Analysis failed", "error", err)
		_ = enc.Encode(map[string]string{"error": err.Error()})
	}
}

func (app *Application) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := app.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	log.Info("New websocket connection", "remote", conn.RemoteAddr().String())
	client := &Client{
		conn:        conn,
		application: app,
	}
	// Registering under gameLock keeps the welcome state ahead of any
	// broadcast the client receives.
	app.gameLock.Lock()
	message, err := json.Marshal(stateMessage{Type: "state", Seq: app.seq, State: app.game.State()})
	if err == nil {
		err = client.send(message)
	}
	if err != nil {
		app.gameLock.Unlock()
		log.Warn("Error sending welcome state", "remote", conn.RemoteAddr().String(), "error", err)
		conn.Close()
		return
	}
	app.clientsLock.Lock()
	app.clients[client] = struct{}{}
	app.clientsLock.Unlock()
	app.gameLock.Unlock()

	go func() {
		for {
			if _, _, err := client.conn.ReadMessage(); err != nil {
				log.Info("Websocket closed", "remote", client.conn.RemoteAddr().String(), "error", err)
				app.removeClient(client)
				return
			}
		}
	}()
}

func (app *Application) removeClient(client *Client) {
	app.clientsLock.Lock()
	delete(app.clients, client)
	app.clientsLock.Unlock()
	client.conn.Close()
}

type stateMessage struct {
	Type  string               `json:"type"`
	Seq   uint64               `json:"seq"`
	State chessgame.BoardState `json:"state"`
}

// publishLocked numbers the current state and sends it to every websocket
// client. Callers hold gameLock, so clients receive states in order.
func (app *Application) publishLocked() chessgame.BoardState {
	state := app.game.State()
	app.seq++
	message, err := json.Marshal(stateMessage{Type: "state", Seq: app.seq, State: state})
	if err != nil {
		log.Error("Error encoding state", "error", err)
		return state
	}
	app.broadcast(message)
	return state
}

func (app *Application) broadcast(message []byte) {
	app.clientsLock.RLock()
	defer app.clientsLock.RUnlock()
	log.Debug("Broadcasting state", "clients", len(app.clients))
	for client := range app.clients {
		if err := client.send(message); err != nil {
			log.Warn("Error writing to websocket", "remote", client.conn.RemoteAddr().String(), "error", err)
		}
	}
}

func (app *Application) closeClients() {
	app.clientsLock.Lock()
	defer app.clientsLock.Unlock()
	for client := range app.clients {
		client.conn.Close()
		delete(app.clients, client)
	}
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	app, err := NewApplication(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", "addr", srv.Addr, "corsOrigin", cfg.CORSOrigin, "difficulty", cfg.Difficulty)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.closeClients()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
