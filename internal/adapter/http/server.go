package adapthttp

import (
	"net/http"

	"physquiz/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	accounts   *app.AccountService
	rounds     *app.RoundService
	tokens     *app.TokenIssuer
	oidcConfig OIDCConfig
	challenges *challengeBook
	webDir     string
}

// New creates a Server wired to the given application services. An empty
// webDir serves the API only.
func New(accounts *app.AccountService, rounds *app.RoundService, tokens *app.TokenIssuer, webDir string) *Server {
	return &Server{
		accounts:   accounts,
		rounds:     rounds,
		tokens:     tokens,
		challenges: newChallengeBook(),
		webDir:     webDir,
	}
}

// WithOIDC enables single sign-on through cfg.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("POST /auth/register", s.handleRegister)
	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.HandleFunc("GET /auth/config", s.handleConfig)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	api.Handle("GET /users", s.authMiddleware(http.HandlerFunc(s.handleListUsers)))
	api.Handle("GET /account", s.authMiddleware(http.HandlerFunc(s.handleAccount)))
	api.Handle("PUT /account/username", s.authMiddleware(http.HandlerFunc(s.handleRename)))
	api.Handle("PUT /account/password", s.authMiddleware(http.HandlerFunc(s.handleChangePassword)))
	api.Handle("DELETE /account", s.authMiddleware(http.HandlerFunc(s.handleDeleteAccount)))

	api.HandleFunc("GET /questions/{mode}", s.handleQuestions)
	api.HandleFunc("GET /leaderboard/{mode}", s.handleLeaderboard)
	api.Handle("GET /highscore/{mode}", s.authMiddleware(http.HandlerFunc(s.handleHighScore)))

	api.Handle("POST /rounds", s.authMiddleware(http.HandlerFunc(s.handleStartRound)))
	api.Handle("GET /rounds", s.authMiddleware(http.HandlerFunc(s.handleListRounds)))
	api.Handle("GET /rounds/{id}", s.authMiddleware(http.HandlerFunc(s.handleGetRound)))
	api.Handle("DELETE /rounds/{id}", s.authMiddleware(http.HandlerFunc(s.handleDeleteRound)))
	api.Handle("POST /rounds/{id}/finish", s.authMiddleware(http.HandlerFunc(s.handleFinish)))
	// Score and strikes only move through judged answers and shots.
	api.Handle("POST /rounds/{id}/answers", s.authMiddleware(http.HandlerFunc(s.handleAnswer)))
	api.Handle("POST /rounds/{id}/target", s.authMiddleware(http.HandlerFunc(s.handleTarget)))
	api.Handle("POST /rounds/{id}/shots", s.authMiddleware(http.HandlerFunc(s.handleShot)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.loggingMiddleware(withNoCache(root))
}
