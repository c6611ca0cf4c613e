// Package types provides the shared conversation data model used across finintel packages.
// Types here stay free of transport and storage dependencies so every layer can import them.
package types

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is one grounding citation returned with a response.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Attachment is a binary payload carried as base64 text.
type Attachment struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
	Name     string `json:"name"`
}

// NewAttachment encodes raw bytes into an Attachment.
func NewAttachment(name, mimeType string, raw []byte) Attachment {
	return Attachment{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MIMEType: mimeType,
		Name:     name,
	}
}

// Decode returns the raw bytes of the attachment.
func (a Attachment) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("attachment %q: malformed base64: %w", a.Name, err)
	}
	return raw, nil
}

// Size returns the decoded size in bytes without decoding.
// Only meaningful for well-formed padded base64.
func (a Attachment) Size() int {
	n := base64.StdEncoding.DecodedLen(len(a.Data))
	for i := len(a.Data) - 1; i >= 0 && a.Data[i] == '='; i-- {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

// ChatMessage is one conversational turn. Messages are never mutated after creation.
type ChatMessage struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Mode        string       `json:"mode"`
	Timestamp   int64        `json:"timestamp"` // unix milliseconds
	Sources     []Source     `json:"sources,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewUserMessage creates a user turn stamped with the current time.
func NewUserMessage(mode, content string, attachments []Attachment) ChatMessage {
	return ChatMessage{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Content:     content,
		Mode:        mode,
		Timestamp:   time.Now().UnixMilli(),
		Attachments: cloneAttachments(attachments),
	}
}

// NewAssistantMessage creates an assistant turn stamped with the current time.
func NewAssistantMessage(mode, content string, sources []Source) ChatMessage {
	var src []Source
	if len(sources) > 0 {
		src = append([]Source(nil), sources...)
	}
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Mode:      mode,
		Timestamp: time.Now().UnixMilli(),
		Sources:   src,
	}
}

// Time returns the timestamp as a time.Time.
func (m ChatMessage) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

func cloneAttachments(in []Attachment) []Attachment {
	if len(in) == 0 {
		return nil
	}
	return append([]Attachment(nil), in...)
}

// FilterByMode returns the stable-order subsequence of msgs tagged with mode.
func FilterByMode(msgs []ChatMessage, mode string) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Mode == mode {
			out = append(out, m)
		}
	}
	return out
}

// AccessLevelInstitutional is granted to every authenticated user.
const AccessLevelInstitutional = "INSTITUTIONAL"

// UserSession is held in memory only and destroyed on logout.
type UserSession struct {
	Token       string    `json:"token"`
	Username    string    `json:"username"`
	LastLogin   time.Time `json:"lastLogin"`
	AccessLevel string    `json:"accessLevel"`
}
