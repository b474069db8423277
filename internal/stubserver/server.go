// Package stubserver is an in-process implementation of the TradHub auth and
// Message Store API surface the messaging client consumes. cmd/msgstored
// serves it for local development; tests run it behind httptest.
package stubserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"tradhub-messaging/internal/domain"
)

// Server exposes the stub REST surface over a Store.
type Server struct {
	store *Store

	mu     sync.RWMutex
	tokens map[string]string // access token -> user id
}

func NewServer(store *Store) *Server {
	return &Server{
		store:  store,
		tokens: make(map[string]string),
	}
}

// IssueToken mints a bearer token for a user without the sign-in round trip.
// Tests use it to act as an already-authenticated client.
func (s *Server) IssueToken(userID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return token
}

func (s *Server) userForToken(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok
}

// Router wires the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signin", s.handleSignIn)

		api.Group(func(priv chi.Router) {
			priv.Use(s.requireAuth)
			priv.Get("/messages", s.handleConversations)
			priv.Post("/messages", s.handleSend)
			priv.Get("/messages/{counterpartID}", s.handleThread)
		})
	})

	return r
}

type contextKey string

const userIDKey contextKey = "user_id"

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "invalid authentication credentials")
			return
		}
		userID, ok := s.userForToken(token)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid authentication credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type signInResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Profile      domain.Profile `json:"profile"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, ok := s.store.Authenticate(req.Identifier, req.Password)
	if !ok {
		// The hosted provider reports bad credentials as 400, not 401.
		respondError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, signInResponse{
		AccessToken:  s.IssueToken(user.ID),
		RefreshToken: uuid.NewString(),
		Profile: domain.Profile{
			ID:          user.ID,
			DisplayName: user.DisplayName,
		},
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	respondJSON(w, http.StatusOK, s.store.Summaries(userID))
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	counterpartID := chi.URLParam(r, "counterpartID")
	respondJSON(w, http.StatusOK, s.store.Thread(userID, counterpartID))
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	ProductID   string `json:"product_id"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		respondError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}

	msg := s.store.Append(userID, req.RecipientID, req.Content, req.ProductID)
	respondJSON(w, http.StatusOK, msg)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("stubserver: encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
