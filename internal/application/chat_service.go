package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/detect"
	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/cache"
	"github.com/alphinepj/Clam-Companion/internal/logging"
)

const (
	defaultDetailTTL    = 5 * time.Minute
	defaultListTTL      = 15 * time.Minute
	defaultHistoryLimit = 20
)

// ChatService runs the chat turn pipeline and serves conversation reads
// through the response cache. Turns against the same conversation are
// serialized with a per-conversation lock so concurrent POSTs cannot
// interleave their appends.
type ChatService struct {
	conversations domain.ConversationRepository
	users         domain.UserRepository
	orchestrator  *Orchestrator
	cache         cache.Store
	logger        logging.Logger

	detailTTL    time.Duration
	listTTL      time.Duration
	historyLimit int

	turnLocks *keyedMutex
	now       func() time.Time
}

func NewChatService(
	conversations domain.ConversationRepository,
	users domain.UserRepository,
	orchestrator *Orchestrator,
	cacheStore cache.Store,
	cacheCfg config.CacheConfig,
	chatCfg config.ChatConfig,
	logger logging.Logger,
) *ChatService {
	detailTTL := cacheCfg.DetailTTL
	if detailTTL <= 0 {
		detailTTL = defaultDetailTTL
	}
	listTTL := cacheCfg.ListTTL
	if listTTL <= 0 {
		listTTL = defaultListTTL
	}
	historyLimit := chatCfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatService{
		conversations: conversations,
		users:         users,
		orchestrator:  orchestrator,
		cache:         cacheStore,
		logger:        logger,
		detailTTL:     detailTTL,
		listTTL:       listTTL,
		historyLimit:  historyLimit,
		turnLocks:     newKeyedMutex(),
		now:           time.Now,
	}
}

// ChatInput is one inbound chat request. ConversationID empty means "start a
// new conversation"; Tone and Language are optional client hints that win
// over detection.
type ChatInput struct {
	UserID         string
	ConversationID string
	Message        string
	Goal           domain.Goal
	Tone           string
	Language       string
}

// ChatOutput is the reply for one completed turn. Provider is ProviderNone
// when the fallback text was used.
type ChatOutput struct {
	Response       string
	ConversationID string
	MessageID      string
	Timestamp      time.Time
	Tone           string
	Language       string
	Provider       string
}

// Chat executes one turn: resolve the conversation, persist the user
// message, generate the assistant reply through the provider chain, persist
// it, and invalidate the owner's cached reads. Supplying no conversation id
// always creates a new thread; there is no implicit "continue most recent".
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if err := domain.ValidateMessageContent(in.Message); err != nil {
		return nil, err
	}
	if err := domain.ValidateGoal(in.Goal); err != nil {
		return nil, err
	}

	conversationID := in.ConversationID
	isNew := conversationID == ""
	if isNew {
		conversationID = uuid.NewString()
	} else if _, err := uuid.Parse(conversationID); err != nil {
		return nil, domain.ErrInvalidID
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	// Everything from load to the final append holds the conversation lock:
	// a second turn against the same id waits instead of interleaving.
	unlock := s.turnLocks.Lock(conversationID)
	defer unlock()

	// Cached reads go stale the moment the first write commits, so the turn
	// invalidates on exit even when a later step fails it.
	mutated := false
	defer func() {
		if mutated {
			s.invalidate(ctx, in.UserID, conversationID)
		}
	}()

	var conv *domain.Conversation
	if isNew {
		conv = &domain.Conversation{ID: conversationID, UserID: in.UserID, Goal: in.Goal}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		mutated = true
		s.logger.Info(ctx, "conversation created",
			"conversation_id", conversationID,
			"goal", in.Goal.String(),
		)
	} else {
		conv, err = s.conversations.Get(ctx, conversationID, in.UserID)
		if err != nil {
			return nil, err
		}
	}

	tone := in.Tone
	if tone == "" {
		tone = detect.Tone(in.Message)
	}
	language := in.Language
	if language == "" {
		language = detect.Language(in.Message)
	}

	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   in.Message,
		Tone:      tone,
		Language:  language,
		CreatedAt: s.now().UTC(),
	}
	if err := s.conversations.AppendMessages(ctx, conversationID, in.UserID, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	mutated = true

	result := s.orchestrator.Generate(ctx, user.Settings.AIProvider, domain.GenerateRequest{
		Message:  in.Message,
		Goal:     in.Goal,
		Tone:     tone,
		Language: language,
		History:  s.historyWindow(conv.Messages),
	})

	assistantMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   result.Text,
		Tone:      result.Tone,
		Language:  language,
		CreatedAt: s.now().UTC(),
	}
	// If this append fails the turn errors with the user message already
	// persisted, so the thread can legally hold two consecutive user turns.
	if err := s.conversations.AppendMessages(ctx, conversationID, in.UserID, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	return &ChatOutput{
		Response:       result.Text,
		ConversationID: conversationID,
		MessageID:      assistantMsg.ID,
		Timestamp:      assistantMsg.CreatedAt,
		Tone:           result.Tone,
		Language:       language,
		Provider:       result.Provider,
	}, nil
}

// historyWindow returns at most the newest historyLimit messages.
func (s *ChatService) historyWindow(messages []domain.Message) []domain.Message {
	if len(messages) <= s.historyLimit {
		return messages
	}
	return messages[len(messages)-s.historyLimit:]
}

// GetConversation serves the full transcript through the read cache, keyed
// per owner so one user can never be handed another user's cached payload.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*ConversationDetail, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, domain.ErrInvalidID
	}

	data, err := s.cache.GetOrLoad(ctx, cache.DetailKey(userID, conversationID), s.detailTTL, func() ([]byte, error) {
		conv, err := s.conversations.Get(ctx, conversationID, userID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(toConversationDetail(conv))
	})
	if err != nil {
		return nil, err
	}

	var detail ConversationDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("decode cached conversation: %w", err)
	}
	return &detail, nil
}

// ListConversations serves one page of summaries through the read cache.
func (s *ChatService) ListConversations(ctx context.Context, userID string, page, pageSize int) (*ConversationList, error) {
	if err := domain.ValidatePage(page, pageSize); err != nil {
		return nil, err
	}

	data, err := s.cache.GetOrLoad(ctx, cache.ListKey(userID, page, pageSize), s.listTTL, func() ([]byte, error) {
		summaries, total, err := s.conversations.List(ctx, userID, page, pageSize)
		if err != nil {
			return nil, err
		}
		views := make([]ConversationSummaryView, len(summaries))
		for i, sum := range summaries {
			views[i] = toSummaryView(sum)
		}
		return json.Marshal(&ConversationList{
			Conversations: views,
			Pagination:    newPagination(page, pageSize, total),
		})
	})
	if err != nil {
		return nil, err
	}

	var list ConversationList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode cached conversation list: %w", err)
	}
	return &list, nil
}

// DeleteConversation removes the conversation and its messages, then drops
// the owner's cached reads. Deleting twice reports NotFound the second time.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if _, err := uuid.Parse(conversationID); err != nil {
		return domain.ErrInvalidID
	}
	if err := s.conversations.Delete(ctx, conversationID, userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "conversation deleted", "conversation_id", conversationID)
	s.invalidate(ctx, userID, conversationID)
	return nil
}

// Stats aggregates the caller's lifetime conversation count and most used
// goal for the profile view.
func (s *ChatService) Stats(ctx context.Context, userID string) (*ChatStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.conversations.CountByGoal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate goals: %w", err)
	}

	var favorite domain.Goal
	var best int64
	for goal, n := range counts {
		if n > best || (n == best && goal < favorite) {
			favorite = goal
			best = n
		}
	}
	return &ChatStats{
		TotalConversations: user.ConversationCount,
		FavoriteGoal:       favorite.String(),
	}, nil
}

// invalidate drops every cached read that could include this conversation.
// Over-invalidation is fine; serving a stale payload is not.
func (s *ChatService) invalidate(ctx context.Context, userID, conversationID string) {
	if err := s.cache.DeleteByPrefix(ctx, cache.ListPrefix(userID)); err != nil {
		s.logger.Warn(ctx, "cache invalidation failed", "scope", "list", "error", err)
	}
	if err := s.cache.Delete(ctx, cache.DetailKey(userID, conversationID)); err != nil {
		s.logger.Warn(ctx, "cache invalidation failed", "scope", "detail", "error", err)
	}
}
