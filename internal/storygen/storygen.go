package storygen

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts story-generation providers. Both calls return raw JSON
// documents the caller validates and decodes.
type Client interface {
	// GenerateOutline turns raw story text into a summary, a five-act
	// structure and a character roster.
	GenerateOutline(ctx context.Context, input OutlineInput) (json.RawMessage, error)
	// GenerateScenes expands an act structure into concrete scenes with
	// dialogue lines and image prompts.
	GenerateScenes(ctx context.Context, input ScenesInput) (json.RawMessage, error)
}

// OutlineInput captures the inputs for outline generation.
type OutlineInput struct {
	StoryText  string
	SceneCount int
}

// ScenesInput captures the inputs for scene expansion. Acts and characters
// are pre-marshaled JSON so providers can embed them verbatim in prompts.
type ScenesInput struct {
	ActsJSON       string
	CharactersJSON string
	Tone           string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("story generation not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// GenerateOutline returns ErrNotImplemented.
func (PlaceholderClient) GenerateOutline(ctx context.Context, input OutlineInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}

// GenerateScenes returns ErrNotImplemented.
func (PlaceholderClient) GenerateScenes(ctx context.Context, input ScenesInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
