package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/habiliai/botruntime"
	"github.com/habiliai/botruntime/bot"
	"github.com/habiliai/botruntime/errors"
	"github.com/mokiat/gog"
)

type (
	commandRequest struct {
		Line string `json:"line"`
	}

	commandResponse struct {
		Messages []string `json:"messages"`
	}

	botView struct {
		ID         string `json:"id"`
		DatabaseID uint   `json:"databaseId,omitempty"`
		Name       string `json:"name"`
		ClassID    uint8  `json:"classId"`
		ClassName  string `json:"className"`
		Role       string `json:"role"`
		Level      uint8  `json:"level"`
		Spawned    bool   `json:"spawned"`
		AIEnabled  bool   `json:"aiEnabled"`
		State      string `json:"state"`
	}
)

func newBotView(a *bot.Agent) botView {
	v := botView{
		ID:         a.ID(),
		DatabaseID: a.DatabaseID(),
		Name:       a.Name(),
		ClassID:    a.ClassID(),
		ClassName:  a.ClassName(),
		Role:       a.Role().String(),
		Level:      a.Level(),
		Spawned:    a.IsSpawned(),
		AIEnabled:  a.AIEnabled(),
		State:      bot.StateIdle.String(),
	}
	if c := a.Controller(); c != nil {
		v.State = c.State().String()
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func createOwnersRouter(router *mux.Router, runtime *botruntime.BotRuntime) {
	router.HandleFunc("/owners/{owner}/commands", func(w http.ResponseWriter, r *http.Request) {
		owner := mux.Vars(r)["owner"]

		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		messages, err := runtime.Execute(r.Context(), owner, req.Line)
		if err != nil {
			http.Error(w, err.Error(), statusOf(err))
			return
		}

		writeJSON(w, http.StatusOK, commandResponse{Messages: messages})
	}).Methods("POST")

	router.HandleFunc("/owners/{owner}/bots", func(w http.ResponseWriter, r *http.Request) {
		owner := mux.Vars(r)["owner"]

		bots := gog.Map(runtime.Registry().ListLive(owner), newBotView)
		writeJSON(w, http.StatusOK, bots)
	}).Methods("GET")

	router.HandleFunc("/owners/{owner}/quit", func(w http.ResponseWriter, r *http.Request) {
		owner := mux.Vars(r)["owner"]

		n, err := runtime.Quit(r.Context(), owner)
		if err != nil {
			http.Error(w, err.Error(), statusOf(err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"retired": n,
		})
	}).Methods("POST")
}

func createServerHandler(runtime *botruntime.BotRuntime, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()
	createOwnersRouter(router, runtime)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true), handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		router.ServeHTTP(w, r.WithContext(ctx))
	})

	return cors(recovery(handler))
}
