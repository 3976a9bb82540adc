// Package models defines the persistent entities of the messaging core:
// conversations, their participants, messages, and message attachments.
package models

import (
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation kinds
const (
	KindDirect = "direct"
	KindGroup  = "group"
)

// DefaultGroupName is the display fallback for unnamed group conversations.
const DefaultGroupName = "Group Chat"

// Conversation is a direct (exactly two participants) or group (one or
// more) thread. Direct conversations never store a name; their display
// name is derived from the counterpart at read time.
type Conversation struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(10);not null;index" json:"kind"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Participants []Participant `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Messages     []Message     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Participant associates a user with a conversation and carries the
// per-user read watermark. The composite primary key enforces the unique
// (conversation, user) pair.
type Participant struct {
	ConversationID string     `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         string     `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	JoinedAt       time.Time  `gorm:"autoCreateTime" json:"joined_at"`
}

// Message belongs to exactly one conversation and is immutable once
// created. Messages are removed only by conversation teardown, via cascade.
type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       string    `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Attachment records a stored file belonging to a message. FilePath is the
// opaque storage key; it is never serialized to clients, which only ever
// see short-lived signed URLs.
type Attachment struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID string    `gorm:"type:uuid;not null;index" json:"message_id"`
	FileName  string    `gorm:"not null" json:"file_name"`
	FileType  string    `gorm:"not null" json:"file_type"`
	FileSize  int64     `gorm:"not null" json:"file_size"`
	FilePath  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// CreateDirectRequest opens (or finds) a direct conversation with another user.
type CreateDirectRequest struct {
	OtherUserID string `json:"other_user_id" binding:"required"`
}

// CreateGroupRequest creates a group conversation.
type CreateGroupRequest struct {
	MemberIDs []string `json:"member_ids" binding:"required"`
	Name      string   `json:"name"`
}

// RenameRequest renames a group conversation. An empty or whitespace-only
// name clears the stored name.
type RenameRequest struct {
	Name string `json:"name"`
}

// SendTextRequest appends a text message to a conversation.
type SendTextRequest struct {
	Content string `json:"content" binding:"required"`
}

// UploadFile is the transport-agnostic shape of one file in an attachment
// message. Handlers build these from multipart form parts.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// AttachmentResponse is the client-facing view of an attachment. URL is a
// freshly issued signed URL, not the durable storage path.
type AttachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	URL      string `json:"url"`
}

// MessageResponse is the client-facing view of a message.
type MessageResponse struct {
	ID             string               `json:"id"`
	ConversationID string               `json:"conversation_id"`
	SenderID       string               `json:"sender_id"`
	Content        string               `json:"content"`
	CreatedAt      time.Time            `json:"created_at"`
	Attachments    []AttachmentResponse `json:"attachments,omitempty"`
}

// MessagePage is one page of a conversation's history.
type MessagePage struct {
	Messages []MessageResponse `json:"messages"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	HasMore  bool              `json:"has_more"`
}

// ConversationSummary annotates a conversation for the caller's directory
// listing: resolved display name, most recent message, and unread count.
type ConversationSummary struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	DisplayName string           `json:"display_name"`
	UnreadCount int64            `json:"unread_count"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
