// Package events publishes catalog audit records after successful writes.
package events

import (
	"context"
	"time"
)

type Type string

const (
	MaterialCreated Type = "material.created"
	MaterialUpdated Type = "material.updated"
	MaterialDeleted Type = "material.deleted"
	MaterialViewed  Type = "material.viewed"
	MaterialRead    Type = "material.read"
	CommentAdded    Type = "comment.added"
	SettingsSaved   Type = "settings.saved"
	FileUploaded    Type = "file.uploaded"
)

type Event struct {
	Type       Type              `json:"type"`
	MaterialID string            `json:"material_id,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	At         time.Time         `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
