package stubserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tradhub-messaging/internal/domain"
)

var ErrUserExists = errors.New("stubserver: user already exists")

// User is a seeded account the stub can authenticate.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	passwordHash []byte
}

// Store keeps users and messages in memory. It is the development stand-in
// for the hosted Message Store; nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	users    map[string]User
	byEmail  map[string]string
	messages []domain.Message
	lastTime time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// SeedUser registers an account with a bcrypt-hashed password.
func (s *Store) SeedUser(email, displayName, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return User{}, ErrUserExists
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		passwordHash: hash,
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return user, nil
}

// Authenticate checks an identifier/password pair against the seeded users.
func (s *Store) Authenticate(identifier, password string) (User, bool) {
	s.mu.RLock()
	id, ok := s.byEmail[identifier]
	var user User
	if ok {
		user = s.users[id]
	}
	s.mu.RUnlock()
	if !ok {
		return User{}, false
	}
	if bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)) != nil {
		return User{}, false
	}
	return user, true
}

// User looks up an account by id.
func (s *Store) User(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	return user, ok
}

// Append stores one message with a server-assigned id and timestamp. The
// timestamp is forced monotonically increasing so thread ordering stays
// strict even when two sends land in the same clock tick.
func (s *Store) Append(senderID, recipientID, content, productID string) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.lastTime) {
		now = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = now

	msg := domain.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		ProductID:   productID,
		CreatedAt:   now,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Thread returns every message between the two users, ascending by creation
// time.
func (s *Store) Thread(userID, counterpartID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, 0, 16)
	for _, msg := range s.messages {
		if (msg.SenderID == userID && msg.RecipientID == counterpartID) ||
			(msg.SenderID == counterpartID && msg.RecipientID == userID) {
			out = append(out, msg)
		}
	}
	return out
}

// Summaries groups the user's messages by counterpart and returns one row per
// counterpart carrying the most recent message, newest conversation first.
func (s *Store) Summaries(userID string) []domain.ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ConversationSummary, 0, 8)
	seen := make(map[string]struct{})
	for i := len(s.messages) - 1; i >= 0; i-- {
		msg := s.messages[i]
		var counterpartID string
		switch userID {
		case msg.SenderID:
			counterpartID = msg.RecipientID
		case msg.RecipientID:
			counterpartID = msg.SenderID
		default:
			continue
		}
		if _, ok := seen[counterpartID]; ok {
			continue
		}
		seen[counterpartID] = struct{}{}

		name := counterpartID
		if user, ok := s.users[counterpartID]; ok {
			name = user.DisplayName
		}
		ts := msg.CreatedAt
		out = append(out, domain.ConversationSummary{
			CounterpartID:   counterpartID,
			CounterpartName: name,
			LastMessage:     msg.Content,
			LastMessageTime: &ts,
		})
	}
	return out
}
