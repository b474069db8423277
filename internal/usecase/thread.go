package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"tradhub-messaging/internal/domain"
)

// ThreadState is a copy of the controller's state for rendering. Messages are
// ascending by creation time, oldest first.
type ThreadState struct {
	CounterpartID string
	Messages      []domain.Message
	Sending       bool
}

// ThreadController manages the message history and outgoing-message lifecycle
// for exactly one active conversation. All state lives in this one object,
// guarded by its mutex; a generation counter ties every load and send to the
// selection that issued it so results for a conversation the user has already
// left are discarded instead of applied.
type ThreadController struct {
	store  MessageStore
	selfID string

	mu            sync.Mutex
	counterpartID string
	productID     string
	generation    uint64
	messages      []domain.Message
	sending       bool
	onSent        func()
}

func NewThreadController(store MessageStore, selfID string) (*ThreadController, error) {
	if store == nil {
		return nil, errors.New("usecase: message store must not be nil")
	}
	if strings.TrimSpace(selfID) == "" {
		return nil, errors.New("usecase: self id must not be empty")
	}
	return &ThreadController{store: store, selfID: selfID}, nil
}

// OnSent registers the callback fired after every successful send, so the
// conversation list view can refetch its summaries. The callback runs on the
// sender's goroutine; no ordering is guaranteed relative to the thread reload.
func (t *ThreadController) OnSent(fn func()) {
	t.mu.Lock()
	t.onSent = fn
	t.mu.Unlock()
}

// Select switches the active conversation. Previously loaded messages stay
// visible until the first successful load for the new selection; in-flight
// operations for the old selection are invalidated.
func (t *ThreadController) Select(counterpartID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counterpartID == counterpartID {
		return
	}
	t.counterpartID = counterpartID
	t.productID = ""
	t.generation++
	t.sending = false
}

// SelectContact selects the conversation seeded by a contact hint. A product
// reference on the hint rides along on the first message sent and is
// discarded afterwards.
func (t *ThreadController) SelectContact(hint domain.ContactHint) {
	t.Select(hint.CounterpartID)
	t.mu.Lock()
	if t.counterpartID == hint.CounterpartID {
		t.productID = hint.ProductID
	}
	t.mu.Unlock()
}

// Load fetches the active conversation's history. On transport failure the
// previously loaded thread is left untouched so the caller never renders a
// false "no messages" state. A result arriving after the selection changed is
// dropped.
func (t *ThreadController) Load(ctx context.Context) error {
	t.mu.Lock()
	counterpartID, generation := t.counterpartID, t.generation
	t.mu.Unlock()

	if counterpartID == "" {
		return newError(ErrorValidation, "no_active_conversation", nil)
	}

	msgs, err := t.store.GetThread(ctx, counterpartID)
	if err != nil {
		return classifyStoreError("load_thread", err)
	}
	sortMessagesAscending(msgs)

	t.mu.Lock()
	if t.generation == generation {
		t.messages = msgs
	}
	t.mu.Unlock()
	return nil
}

// Send submits one outgoing message. Empty text is rejected locally and a
// second send while one is in flight for this thread is refused, so repeated
// taps never dispatch concurrent network calls. On success the thread is
// reloaded (sequenced after the send completed, so it reflects the new
// message) and the OnSent callback fires; on failure nothing refreshes and
// the caller keeps the typed text for retry.
func (t *ThreadController) Send(ctx context.Context, text string) error {
	content := strings.TrimSpace(text)
	if content == "" {
		return newError(ErrorValidation, "empty_message", nil)
	}

	t.mu.Lock()
	if t.counterpartID == "" {
		t.mu.Unlock()
		return newError(ErrorValidation, "no_active_conversation", nil)
	}
	if t.sending {
		t.mu.Unlock()
		return newError(ErrorValidation, "send_in_flight", nil)
	}
	t.sending = true
	counterpartID, productID, generation := t.counterpartID, t.productID, t.generation
	onSent := t.onSent
	t.mu.Unlock()

	_, err := t.store.SendMessage(ctx, counterpartID, content, productID)

	t.mu.Lock()
	stale := t.generation != generation
	if !stale {
		t.sending = false
		if err == nil {
			// First successful send consumes the product hint.
			t.productID = ""
		}
	}
	t.mu.Unlock()

	if err != nil {
		return classifyStoreError("send_message", err)
	}
	if stale {
		// Delivered, but the user has moved on; nothing here to refresh.
		return nil
	}

	// The send is confirmed; even if this reload fails the previous thread
	// stays rendered, so its error is not the send's error.
	_ = t.Load(ctx)
	if onSent != nil {
		onSent()
	}
	return nil
}

// Snapshot returns a copy of the current thread state.
func (t *ThreadController) Snapshot() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := make([]domain.Message, len(t.messages))
	copy(msgs, t.messages)
	return ThreadState{
		CounterpartID: t.counterpartID,
		Messages:      msgs,
		Sending:       t.sending,
	}
}

// SelfID is the authenticated user this controller sends as.
func (t *ThreadController) SelfID() string {
	return t.selfID
}

func sortMessagesAscending(msgs []domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
