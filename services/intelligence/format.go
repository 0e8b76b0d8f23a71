package ai

import (
	"strings"

	"github.com/n2digital-pt/lead-lens-n2/models"
)

// FormatText trims the answer and unwraps it when the model put the whole
// response inside one fenced markdown block.
func FormatText(text string) (string, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && len(text) > 6 {
		inner := strings.TrimSuffix(text, "```")
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
			body := inner[nl+1:]
			// Only unwrap a single block; inner fences mean real code samples.
			if !strings.Contains(body, "```") {
				lang := strings.TrimSpace(strings.TrimPrefix(inner[:nl], "```"))
				if lang == "" || lang == "markdown" || lang == "md" {
					text = strings.TrimSpace(body)
				}
			}
		}
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// DedupeCitations drops repeated sources, keeping first occurrence order.
func DedupeCitations(in []models.Citation) []models.Citation {
	out := make([]models.Citation, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c.Title = strings.TrimSpace(c.Title)
		c.Address = strings.TrimSpace(c.Address)
		c.URI = strings.TrimSpace(c.URI)
		if c.Title == "" && c.URI == "" && c.PlaceID == "" {
			continue
		}
		key := c.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
