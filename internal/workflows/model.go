package workflows

import (
	"encoding/json"
	"time"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"

	// FirstStep..FinalStep are the authoring pipeline bounds.
	FirstStep = 1
	FinalStep = 7
	StepCount = 7

	// Steps at or below this cascade-clear all later caches when edited;
	// downstream content is wholly re-derivable from these structural stages.
	cascadeLimit = 3
)

// StepCache holds one step's derived input and submitted output.
type StepCache struct {
	In  json.RawMessage
	Out json.RawMessage
}

// Workflow tracks a user's progress through the seven authoring steps for
// one storyboard. Steps is indexed by step number minus one.
type Workflow struct {
	ID           string
	UserID       string
	StoryboardID string
	Status       string
	CurrentStep  int
	Steps        [StepCount]StepCache
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidStep reports whether n is a legal step number.
func ValidStep(n int) bool {
	return n >= FirstStep && n <= FinalStep
}

// Step returns the cache slot for a 1-based step number.
func (w *Workflow) Step(n int) *StepCache {
	if !ValidStep(n) {
		return nil
	}
	return &w.Steps[n-1]
}

// ClearAfter drops cached inputs and outputs for every step greater than n.
func (w *Workflow) ClearAfter(n int) {
	for i := n; i < StepCount; i++ {
		w.Steps[i] = StepCache{}
	}
}

// Cascades reports whether editing step n invalidates later caches.
func Cascades(n int) bool {
	return n <= cascadeLimit
}
