package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"

	"tradhub-messaging/internal/domain"
)

// placeholderContactName labels a conversation that exists only because the
// user tapped "contact" on another screen; no profile lookup happens here.
const placeholderContactName = "Nouveau contact"

// MessageStore is the Message Store API surface consumed by the aggregator
// and the thread controller.
type MessageStore interface {
	ListConversations(ctx context.Context) ([]domain.ConversationSummary, error)
	GetThread(ctx context.Context, counterpartID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, recipientID, content, productID string) (domain.Message, error)
}

// ConversationService materializes the current user's conversation list and
// resolves the open conversation, including the pending-contact merge. It
// owns no persisted state; the view is rebuilt from scratch on every List.
type ConversationService struct {
	store MessageStore
}

func NewConversationService(store MessageStore) (*ConversationService, error) {
	if store == nil {
		return nil, errors.New("usecase: message store must not be nil")
	}
	return &ConversationService{store: store}, nil
}

// List fetches the per-counterpart summaries and normalizes them: exactly one
// summary per counterpart, ordered by last-message time descending with
// message-less conversations after all real ones. On failure the list is
// unknown, not empty: no partial result is returned.
func (s *ConversationService) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	raw, err := s.store.ListConversations(ctx)
	if err != nil {
		return nil, classifyStoreError("list_conversations", err)
	}
	return normalizeSummaries(raw), nil
}

// ResolveActive applies the pending-contact merge. With a hint matching an
// existing summary the real conversation wins; with no match a placeholder is
// synthesized. Without a hint nothing is pre-selected and ok is false.
func (s *ConversationService) ResolveActive(hint *domain.ContactHint, conversations []domain.ConversationSummary) (domain.Conversation, bool) {
	if hint == nil || strings.TrimSpace(hint.CounterpartID) == "" {
		return domain.Conversation{}, false
	}
	for _, summary := range conversations {
		if summary.CounterpartID == hint.CounterpartID {
			return domain.Conversation{Summary: summary}, true
		}
	}
	return domain.Conversation{
		Summary: domain.ConversationSummary{
			CounterpartID:   hint.CounterpartID,
			CounterpartName: placeholderContactName,
		},
		Placeholder: true,
	}, true
}

// FilterConversations returns the summaries whose counterpart name contains
// term, case-insensitively. An empty term keeps everything.
func FilterConversations(summaries []domain.ConversationSummary, term string) []domain.ConversationSummary {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return summaries
	}
	out := make([]domain.ConversationSummary, 0, len(summaries))
	for _, summary := range summaries {
		if strings.Contains(strings.ToLower(summary.CounterpartName), term) {
			out = append(out, summary)
		}
	}
	return out
}

// normalizeSummaries de-duplicates by counterpart (first occurrence wins) and
// establishes the list ordering contract. The sort is stable so summaries
// without a timestamp keep their insertion order.
func normalizeSummaries(raw []domain.ConversationSummary) []domain.ConversationSummary {
	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.ConversationSummary, 0, len(raw))
	for _, summary := range raw {
		if _, ok := seen[summary.CounterpartID]; ok {
			continue
		}
		seen[summary.CounterpartID] = struct{}{}
		out = append(out, summary)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageTime, out[j].LastMessageTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}
