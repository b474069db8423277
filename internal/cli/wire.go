package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"tradhub-messaging/internal/config"
	"tradhub-messaging/internal/domain"
	"tradhub-messaging/internal/integrations/msgstore"
	"tradhub-messaging/internal/integrations/session"
	"tradhub-messaging/internal/usecase"
)

// app bundles the wired clients and services for one CLI invocation.
type app struct {
	cfg           config.Config
	selfID        string
	profile       domain.Profile
	sess          *session.Client
	store         *msgstore.Client
	conversations *usecase.ConversationService
}

// loadApp reads configuration, resolves a credential and wires the Message
// Store client and services. With sign-in credentials it authenticates
// eagerly so the current user's id is known for thread rendering.
func loadApp(ctx context.Context) (*app, error) {
	// .env is optional; the process environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	a := &app{cfg: cfg, selfID: cfg.UserID}

	var tokens msgstore.TokenSource
	switch {
	case cfg.AccessToken != "":
		tokens = session.StaticTokenSource(cfg.AccessToken)
	case cfg.Identifier != "":
		sess, err := session.NewClient(cfg.APIBaseURL, session.Credentials{
			Identifier: cfg.Identifier,
			Password:   cfg.Password,
		}, session.WithHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		profile, err := sess.SignIn(ctx)
		if err != nil {
			return nil, fmt.Errorf("sign in failed: %w", err)
		}
		a.sess = sess
		a.profile = profile
		a.selfID = profile.ID
		tokens = sess
	default:
		return nil, errors.New("no credentials: set TRADHUB_ACCESS_TOKEN or TRADHUB_IDENTIFIER/TRADHUB_PASSWORD")
	}

	store, err := msgstore.NewClient(tokens, cfg.APIBaseURL, msgstore.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	conversations, err := usecase.NewConversationService(store)
	if err != nil {
		return nil, err
	}

	a.store = store
	a.conversations = conversations
	return a, nil
}

// threadController builds a controller bound to the current user. A
// pre-issued token needs TRADHUB_USER_ID so sent messages can be told apart
// from received ones.
func (a *app) threadController() (*usecase.ThreadController, error) {
	if a.selfID == "" {
		return nil, errors.New("current user unknown: set TRADHUB_USER_ID when using TRADHUB_ACCESS_TOKEN")
	}
	return usecase.NewThreadController(a.store, a.selfID)
}
