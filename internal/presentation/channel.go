package presentation

import (
	"context"

	"github.com/redsunink/veliankeeper/internal/domain"
)

// Artifact colors, in the gateway's 24-bit RGB convention.
const (
	ColorRunning   = 0x3498db // blue
	ColorCompleted = 0x2ecc71 // green
	ColorClosed    = 0xe74c3c // red
)

// Field is a single labeled value on a rendered artifact.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Artifact is the rendered, interactive representation of a task.
type Artifact struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Footer      string  `json:"footer"`
}

// Message is a rendered message as seen on a channel. Footer carries the
// content fingerprint used by startup reconciliation.
type Message struct {
	Ref    domain.MessageRef
	Footer string
}

// Channel is the outward-facing chat surface tasks are rendered to.
type Channel interface {
	// Render posts a new artifact and returns its message reference.
	Render(ctx context.Context, channelID int64, artifact Artifact) (domain.MessageRef, error)

	// Update re-renders an existing artifact in place.
	Update(ctx context.Context, ref domain.MessageRef, artifact Artifact) error

	// Retract removes an artifact. Retracting an already-removed artifact
	// succeeds.
	Retract(ctx context.Context, ref domain.MessageRef) error

	// Fetch returns an existing message, or a not-found error.
	Fetch(ctx context.Context, ref domain.MessageRef) (*Message, error)

	// History returns up to limit recent messages on a channel, newest first.
	History(ctx context.Context, channelID int64, limit int) ([]Message, error)
}
