package service

import (
	"context"
	"strings"
	"time"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/cache"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/shared/observability"
)

// DirectoryService creates and finds conversations and builds the caller's
// annotated conversation listing.
type DirectoryService struct {
	convs     repository.ConversationRepository
	msgs      repository.MessageRepository
	users     UserDirectory
	names     cache.Store
	presenter *presenter
	log       *logger.Logger
}

func NewDirectoryService(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	users UserDirectory,
	names cache.Store,
	presenter *presenter,
	log *logger.Logger,
) *DirectoryService {
	return &DirectoryService{
		convs:     convs,
		msgs:      msgs,
		users:     users,
		names:     names,
		presenter: presenter,
		log:       log,
	}
}

// List returns every conversation the user participates in, newest activity
// first, annotated with display name, last message, and unread count.
func (s *DirectoryService) List(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	defer observe("list_conversations")()

	conversations, err := s.convs.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to list conversations")
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		conv := &conversations[i]

		participant, err := s.convs.GetParticipant(ctx, conv.ID, userID)
		if err != nil || participant == nil {
			return nil, errors.NewPersistenceError("failed to load participant state")
		}

		unread, err := s.msgs.UnreadCount(ctx, conv.ID, userID, participant.LastReadAt)
		if err != nil {
			return nil, errors.NewPersistenceError("failed to count unread messages")
		}

		last, err := s.msgs.LastMessage(ctx, conv.ID)
		if err != nil {
			return nil, errors.NewPersistenceError("failed to load last message")
		}

		displayName, err := s.displayName(ctx, conv, userID)
		if err != nil {
			return nil, err
		}

		summary := models.ConversationSummary{
			ID:          conv.ID,
			Kind:        conv.Kind,
			DisplayName: displayName,
			UnreadCount: unread,
			UpdatedAt:   conv.UpdatedAt,
		}
		if last != nil {
			resp := s.presenter.message(ctx, last)
			summary.LastMessage = &resp
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// CreateOrGetDirect returns the direct conversation for the unordered pair
// {caller, other}, creating it only if none exists.
func (s *DirectoryService) CreateOrGetDirect(ctx context.Context, callerID, otherID string) (*models.Conversation, error) {
	defer observe("create_or_get_direct")()

	if otherID == "" {
		return nil, errors.NewValidationError("other user id is required")
	}
	if callerID == otherID {
		return nil, errors.NewValidationError("cannot start a direct conversation with yourself")
	}

	if _, err := s.users.Resolve(ctx, []string{otherID}); err != nil {
		return nil, err
	}

	existing, err := s.convs.FindDirectByPair(ctx, callerID, otherID)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to look up direct conversation")
	}
	if existing != nil {
		return existing, nil
	}

	conv := &models.Conversation{Kind: models.KindDirect}
	participants := []models.Participant{
		{UserID: callerID},
		{UserID: otherID},
	}
	if err := s.convs.Create(ctx, conv, participants); err != nil {
		return nil, errors.NewPersistenceError("failed to create conversation")
	}
	return conv, nil
}

// CreateGroup creates a group conversation with the caller and the given members.
func (s *DirectoryService) CreateGroup(ctx context.Context, callerID string, memberIDs []string, name string) (*models.Conversation, error) {
	defer observe("create_group")()

	members := dedupe(memberIDs, callerID)
	if len(members) == 0 {
		return nil, errors.NewValidationError("a group conversation needs at least one other member")
	}

	if _, err := s.users.Resolve(ctx, members); err != nil {
		return nil, err
	}

	conv := &models.Conversation{Kind: models.KindGroup}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		conv.Name = &trimmed
	}

	participants := make([]models.Participant, 0, len(members)+1)
	participants = append(participants, models.Participant{UserID: callerID})
	for _, id := range members {
		participants = append(participants, models.Participant{UserID: id})
	}

	if err := s.convs.Create(ctx, conv, participants); err != nil {
		return nil, errors.NewPersistenceError("failed to create conversation")
	}
	return conv, nil
}

// Rename sets or clears a group conversation's name. Direct conversation
// names are never user-settable.
func (s *DirectoryService) Rename(ctx context.Context, conversationID, callerID, name string) (*models.Conversation, error) {
	defer observe("rename_group")()

	if _, err := requireParticipant(ctx, s.convs, conversationID, callerID); err != nil {
		return nil, err
	}

	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to load conversation")
	}
	if conv.Kind == models.KindDirect {
		return nil, errors.NewValidationError("direct conversations cannot be renamed")
	}

	var newName *string
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		newName = &trimmed
	}
	if err := s.convs.UpdateName(ctx, conversationID, newName); err != nil {
		return nil, errors.NewPersistenceError("failed to rename conversation")
	}

	conv.Name = newName
	return conv, nil
}

// displayName derives the listing name: for direct conversations the
// counterpart's name (or their id when unresolvable), for groups the stored
// name or the generic fallback.
func (s *DirectoryService) displayName(ctx context.Context, conv *models.Conversation, userID string) (string, error) {
	if conv.Kind == models.KindGroup {
		if conv.Name != nil && *conv.Name != "" {
			return *conv.Name, nil
		}
		return models.DefaultGroupName, nil
	}

	participants, err := s.convs.ListParticipants(ctx, conv.ID)
	if err != nil {
		return "", errors.NewPersistenceError("failed to load participants")
	}

	var otherID string
	for _, p := range participants {
		if p.UserID != userID {
			otherID = p.UserID
			break
		}
	}
	if otherID == "" {
		return models.DefaultGroupName, nil
	}

	return s.userName(ctx, otherID), nil
}

// userName resolves a user's display name through the cache, falling back
// to the raw id when the user no longer resolves.
func (s *DirectoryService) userName(ctx context.Context, userID string) string {
	cacheKey := "user:name:" + userID
	if s.names != nil {
		if name, ok := s.names.Get(cacheKey); ok {
			return name
		}
	}

	users, err := s.users.Resolve(ctx, []string{userID})
	if err != nil {
		return userID
	}
	name := users[userID].Name
	if name == "" {
		name = userID
	}

	if s.names != nil {
		s.names.Set(cacheKey, name, 0)
	}
	return name
}

// dedupe returns ids with duplicates and the caller removed, preserving order.
func dedupe(ids []string, callerID string) []string {
	seen := map[string]bool{callerID: true}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// observe times an operation for the metrics histogram.
func observe(operation string) func() {
	start := time.Now()
	return func() {
		observability.RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
