package openai

import "fmt"

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptOutline = "You are a story structuring engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptScenes  = "You are a screenwriting engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

const outlineSchema = `{
  "summary": {"title": string, "premise": string, "genre": string, "tone": string},
  "acts": [{"actNumber": int (1..5), "title": string, "description": string,
            "scenes": [{"title": string, "synopsis": string}]}],
  "characters": [{"name": string, "role": string, "personality": string,
                  "visualDescription": string, "voiceType": string}]
}`

const scenesSchema = `{
  "scenes": [{"title": string, "imagePrompt": string,
              "dialogue": [{"speaker": string, "text": string}]}]
}`

func buildOutlinePrompt(storyText string, sceneCount int) []Message {
	developer := fmt.Sprintf(
		"Split the story into exactly five acts containing %d scenes in total. "+
			"Assign more scenes to earlier acts when the count does not divide evenly. "+
			"Identify every named character. Schema:\n%s",
		sceneCount, outlineSchema)
	return []Message{
		{Role: "system", Content: systemPromptOutline},
		{Role: "developer", Content: developer},
		{Role: "user", Content: storyText},
	}
}

func buildScenesPrompt(actsJSON, charactersJSON, tone string) []Message {
	developer := fmt.Sprintf(
		"Expand every scene stub in the acts below into a full scene with dialogue "+
			"lines and a single image prompt describing the visual. Keep the tone %q. "+
			"Use only the provided characters as speakers. Schema:\n%s",
		tone, scenesSchema)
	user := fmt.Sprintf("Acts:\n%s\n\nCharacters:\n%s", actsJSON, charactersJSON)
	return []Message{
		{Role: "system", Content: systemPromptScenes},
		{Role: "developer", Content: developer},
		{Role: "user", Content: user},
	}
}

func buildFixPrompt(schema string, raw []byte) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: "Schema:\n" + schema},
		{Role: "user", Content: fmt.Sprintf("Repair this output into valid JSON matching the schema:\n%s", raw)},
	}
}
