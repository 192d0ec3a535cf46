package storyboards

import "time"

// StoryboardResponse is the outward-facing representation of a storyboard.
type StoryboardResponse struct {
	StoryboardID string           `json:"storyboardId"`
	WorkflowID   string           `json:"workflowId,omitempty"`
	Title        string           `json:"title"`
	Status       string           `json:"status"`
	SceneCount   int              `json:"sceneCount"`
	Summary      *Summary         `json:"summary,omitempty"`
	Acts         []Act            `json:"acts,omitempty"`
	Characters   []Character      `json:"characters,omitempty"`
	Scenes       []Scene          `json:"scenes,omitempty"`
	Audio        *AudioSettings   `json:"audio,omitempty"`
	Style        *StyleSettings   `json:"style,omitempty"`
	Captions     *CaptionSettings `json:"captions,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func toResponse(sb Storyboard) StoryboardResponse {
	return StoryboardResponse{
		StoryboardID: sb.ID,
		Title:        sb.Title,
		Status:       sb.Status,
		SceneCount:   sb.SceneCount,
		Summary:      sb.Summary,
		Acts:         sb.Acts,
		Characters:   sb.Characters,
		Scenes:       sb.Scenes,
		Audio:        sb.Audio,
		Style:        sb.Style,
		Captions:     sb.Captions,
		CreatedAt:    sb.CreatedAt,
		UpdatedAt:    sb.UpdatedAt,
	}
}

func toListItem(sb Storyboard) map[string]any {
	return map[string]any{
		"storyboardId": sb.ID,
		"title":        sb.Title,
		"status":       sb.Status,
		"sceneCount":   sb.SceneCount,
		"createdAt":    sb.CreatedAt,
		"updatedAt":    sb.UpdatedAt,
	}
}
