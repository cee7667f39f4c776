package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Extractor is the external AI call the document parser delegates to. It
// receives the raw document bytes plus a fixed instruction prompt and
// returns the decoded JSON payload. Implementations may fail with transport
// or formatting errors; the caller fails the whole parse on any of them.
type Extractor interface {
	Extract(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error)
}

// GeminiExtractor sends the document inline to a Gemini model and decodes
// the JSON object it returns.
type GeminiExtractor struct {
	model string
}

// NewGeminiExtractor creates an extractor for the given model name.
func NewGeminiExtractor(model string) *GeminiExtractor {
	return &GeminiExtractor{model: model}
}

// Extract sends the PDF to Gemini and returns the parsed JSON output.
// It expects the model to return a STRICT JSON object.
func (e *GeminiExtractor) Extract(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     document,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("extract: empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("extract: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	return payload, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction, keeping only the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
