package meeting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/foxseedlab/sirius/internal/repository"
)

const (
	maxChatHistoryLimit = 200
	defaultMessageType  = "text"
)

type SendChatRequest struct {
	RoomID       string
	SenderCedula string
	SenderName   string
	SenderType   repository.ParticipantType
	MessageText  string
	MessageType  string
	ReplyToID    *string
	Metadata     map[string]any
}

func (s *Service) ChatHistory(ctx context.Context, roomID string, limit, offset int) ([]repository.ChatMessage, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidInput)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = s.cfg.ChatHistoryLimit
	}
	limit = min(limit, maxChatHistoryLimit)
	messages, err := s.repo.ListChatMessages(ctx, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}

func (s *Service) SendChatMessage(ctx context.Context, req SendChatRequest) (*repository.ChatMessage, error) {
	if strings.TrimSpace(req.RoomID) == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SenderName) == "" || strings.TrimSpace(req.MessageText) == "" {
		return nil, fmt.Errorf("%w: sender name and message text are required", ErrInvalidInput)
	}

	input := repository.InsertChatMessageInput{
		RoomID:       req.RoomID,
		SenderCedula: req.SenderCedula,
		SenderName:   req.SenderName,
		SenderType:   req.SenderType,
		MessageText:  req.MessageText,
		MessageType:  req.MessageType,
		ReplyToID:    req.ReplyToID,
		Metadata:     req.Metadata,
	}
	if input.SenderType == "" {
		input.SenderType = repository.ParticipantTypeInternal
	}
	if input.MessageType == "" {
		input.MessageType = defaultMessageType
	}
	if input.Metadata == nil {
		input.Metadata = map[string]any{}
	}

	// Messages may be sent to rooms that have no meeting record (ad hoc calls).
	m, err := s.repo.GetMeetingByRoomID(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("resolve meeting for chat: %w", err)
	}
	if m != nil {
		input.MeetingID = &m.ID
	}

	msg, err := s.repo.InsertChatMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	s.publishChat(ctx, chat.EventInsert, *msg)
	return msg, nil
}

func (s *Service) EditChatMessage(ctx context.Context, roomID, messageID, text, editorCedula string) (*repository.ChatMessage, error) {
	if messageID == "" || strings.TrimSpace(text) == "" || editorCedula == "" {
		return nil, fmt.Errorf("%w: message id, text and editor cedula are required", ErrInvalidInput)
	}
	msg, err := s.repo.UpdateChatMessage(ctx, repository.UpdateChatMessageInput{
		RoomID:       roomID,
		MessageID:    messageID,
		SenderCedula: editorCedula,
		MessageText:  text,
		EditedAt:     s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("update chat message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %s for sender", ErrNotFound, messageID)
	}
	s.publishChat(ctx, chat.EventUpdate, *msg)
	return msg, nil
}

func (s *Service) DeleteChatMessage(ctx context.Context, roomID, messageID, cedula string) error {
	if messageID == "" || cedula == "" {
		return fmt.Errorf("%w: message id and cedula are required", ErrInvalidInput)
	}
	msg, err := s.repo.DeleteChatMessage(ctx, roomID, messageID, cedula)
	if err != nil {
		return fmt.Errorf("delete chat message: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("%w: message %s for sender", ErrNotFound, messageID)
	}
	s.publishChat(ctx, chat.EventDelete, *msg)
	return nil
}

// OpenChatFeed subscribes to a room's change events and seeds a feed with
// its recent history. The subscription is opened first so no event that
// happens while history loads is lost; the feed drops the overlap.
func (s *Service) OpenChatFeed(ctx context.Context, roomID, viewerCedula string) (*chat.Feed, chat.Subscription, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, nil, fmt.Errorf("%w: room id is required", ErrInvalidInput)
	}
	sub, err := s.chat.Subscribe(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: subscribe chat: %w", ErrUnavailable, err)
	}
	history, err := s.ChatHistory(ctx, roomID, 0, 0)
	if err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	return chat.NewFeed(roomID, viewerCedula, history), sub, nil
}

// publishChat only logs failures; the message is already stored.
func (s *Service) publishChat(ctx context.Context, typ chat.EventType, msg repository.ChatMessage) {
	ev := chat.Event{Type: typ, RoomID: msg.RoomID, Message: msg}
	if err := s.chat.Publish(ctx, ev); err != nil {
		slog.Error("failed to publish chat event", "error", err, "room_id", msg.RoomID, "message_id", msg.ID, "event_type", string(typ))
		return
	}
	s.metrics.ChatEventsPublished.WithLabelValues(string(typ)).Inc()
}
