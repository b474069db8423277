package stubserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tradhub-messaging/internal/domain"
	"tradhub-messaging/internal/integrations/msgstore"
	"tradhub-messaging/internal/integrations/session"
	"tradhub-messaging/internal/usecase"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server, *Store) {
	t.Helper()
	store := NewStore()
	server := NewServer(store)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, server, store
}

func seedTestUser(t *testing.T, store *Store, email, name string) User {
	t.Helper()
	user, err := store.SeedUser(email, name, "secret")
	require.NoError(t, err)
	return user
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// ---------------------------------------------------------------------------
// Sign-in
// ---------------------------------------------------------------------------

func TestSignIn(t *testing.T) {
	ts, _, store := newTestServer(t)
	user := seedTestUser(t, store, "amina@tradhub.test", "Amina Acheteur")

	resp := postJSON(t, ts.URL+"/api/auth/signin", map[string]string{
		"identifier": "amina@tradhub.test",
		"password":   "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken  string         `json:"access_token"`
		RefreshToken string         `json:"refresh_token"`
		Profile      domain.Profile `json:"profile"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)
	require.Equal(t, user.ID, body.Profile.ID)
	require.Equal(t, "Amina Acheteur", body.Profile.DisplayName)
}

func TestSignIn_BadCredentials(t *testing.T) {
	ts, _, store := newTestServer(t)
	seedTestUser(t, store, "amina@tradhub.test", "Amina Acheteur")

	resp := postJSON(t, ts.URL+"/api/auth/signin", map[string]string{
		"identifier": "amina@tradhub.test",
		"password":   "wrong",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "invalid credentials", body["detail"])
}

func TestSignIn_UnknownUser(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/signin", map[string]string{
		"identifier": "nobody@tradhub.test",
		"password":   "secret",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// Auth guard
// ---------------------------------------------------------------------------

func TestMessages_RequireBearerToken(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/messages", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// Store semantics
// ---------------------------------------------------------------------------

func TestStore_ThreadAscendingAndMonotonic(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		store.Append("u1", "u2", fmt.Sprintf("message %d", i), "")
	}

	thread := store.Thread("u1", "u2")
	require.Len(t, thread, 5)
	for i := 1; i < len(thread); i++ {
		require.True(t, thread[i].CreatedAt.After(thread[i-1].CreatedAt),
			"timestamps must be strictly increasing")
	}

	// Both participants see the same thread.
	require.Equal(t, thread, store.Thread("u2", "u1"))
	require.Empty(t, store.Thread("u1", "u3"))
}

func TestStore_SummariesGroupByCounterpart(t *testing.T) {
	store := NewStore()
	seller := seedTestUser(t, store, "felix@tradhub.test", "Félix Fournisseur")

	store.Append("u1", seller.ID, "Bonjour", "")
	store.Append(seller.ID, "u1", "Bonjour, dispo", "")
	store.Append("u1", "u3", "Autre discussion", "")

	summaries := store.Summaries("u1")
	require.Len(t, summaries, 2)

	// newest conversation first
	require.Equal(t, "u3", summaries[0].CounterpartID)
	require.Equal(t, "u3", summaries[0].CounterpartName, "unknown users fall back to their id")
	require.Equal(t, "Autre discussion", summaries[0].LastMessage)

	require.Equal(t, seller.ID, summaries[1].CounterpartID)
	require.Equal(t, "Félix Fournisseur", summaries[1].CounterpartName)
	require.Equal(t, "Bonjour, dispo", summaries[1].LastMessage)
	require.NotNil(t, summaries[1].LastMessageTime)
}

func TestStore_SeedUserRejectsDuplicateEmail(t *testing.T) {
	store := NewStore()
	seedTestUser(t, store, "amina@tradhub.test", "Amina Acheteur")

	_, err := store.SeedUser("amina@tradhub.test", "Quelqu'un", "secret")
	require.ErrorIs(t, err, ErrUserExists)
}

// ---------------------------------------------------------------------------
// End to end through the real clients
// ---------------------------------------------------------------------------

func TestEndToEnd_SendThenReload(t *testing.T) {
	ts, server, store := newTestServer(t)
	buyer := seedTestUser(t, store, "amina@tradhub.test", "Amina Acheteur")
	seller := seedTestUser(t, store, "felix@tradhub.test", "Félix Fournisseur")
	store.Append(seller.ID, buyer.ID, "Bienvenue sur TradHub", "")

	token := server.IssueToken(buyer.ID)
	client, err := msgstore.NewClient(session.StaticTokenSource(token), ts.URL)
	require.NoError(t, err)

	controller, err := usecase.NewThreadController(client, buyer.ID)
	require.NoError(t, err)
	conversations, err := usecase.NewConversationService(client)
	require.NoError(t, err)

	var refreshed int
	controller.OnSent(func() { refreshed++ })

	controller.Select(seller.ID)
	require.NoError(t, controller.Load(context.Background()))
	require.Len(t, controller.Snapshot().Messages, 1)

	require.NoError(t, controller.Send(context.Background(), "Merci, je cherche du tissu wax"))
	require.Equal(t, 1, refreshed)

	state := controller.Snapshot()
	require.Len(t, state.Messages, 2)
	last := state.Messages[len(state.Messages)-1]
	require.Equal(t, buyer.ID, last.SenderID)
	require.Equal(t, "Merci, je cherche du tissu wax", last.Content)

	list, err := conversations.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, seller.ID, list[0].CounterpartID)
	require.Equal(t, "Merci, je cherche du tissu wax", list[0].LastMessage)
}

func TestEndToEnd_SessionClientSignsIn(t *testing.T) {
	ts, _, store := newTestServer(t)
	buyer := seedTestUser(t, store, "amina@tradhub.test", "Amina Acheteur")
	seller := seedTestUser(t, store, "felix@tradhub.test", "Félix Fournisseur")

	sess, err := session.NewClient(ts.URL, session.Credentials{
		Identifier: "amina@tradhub.test",
		Password:   "secret",
	})
	require.NoError(t, err)

	profile, err := sess.SignIn(context.Background())
	require.NoError(t, err)
	require.Equal(t, buyer.ID, profile.ID)

	client, err := msgstore.NewClient(sess, ts.URL)
	require.NoError(t, err)

	msg, err := client.SendMessage(context.Background(), seller.ID, "Bonjour, votre café est-il dispo ?", "p12")
	require.NoError(t, err)
	require.Equal(t, buyer.ID, msg.SenderID)
	require.Equal(t, "p12", msg.ProductID)

	thread, err := client.GetThread(context.Background(), seller.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Equal(t, msg.ID, thread[0].ID)
}
