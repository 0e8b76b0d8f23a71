package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/n2digital-pt/lead-lens-n2/models"

	"google.golang.org/genai"
)

// GroundedClient sends prompts that may use Google Search or Google Maps
// grounding and turns the grounding chunks into citations.
type GroundedClient struct {
	client    *genai.Client
	modelName string
}

func NewGroundedClient(ctx context.Context, apiKey, modelName string) (*GroundedClient, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GroundedClient{client: client, modelName: modelName}, nil
}

func (g *GroundedClient) Generate(ctx context.Context, p Prompt) (*Generation, error) {
	parts := []*genai.Part{}
	if p.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(p.Image.Data, p.Image.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(p.Text))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, generateConfig(p))
	if err != nil {
		return nil, &VendorError{Op: "genai generate", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &VendorError{Op: "genai generate", Err: ErrEmptyResponse}
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return &Generation{
		Text:      sb.String(),
		Citations: citationsFromGrounding(candidate.GroundingMetadata),
		Model:     g.modelName,
	}, nil
}

func generateConfig(p Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.5),
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	switch p.Grounding {
	case GroundingSearch:
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case GroundingMaps:
		cfg.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		if p.Location != nil {
			cfg.ToolConfig = &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{
						Latitude:  genai.Ptr(p.Location.Latitude),
						Longitude: genai.Ptr(p.Location.Longitude),
					},
				},
			}
		}
	}
	return cfg
}

// citationsFromGrounding maps web and maps chunks to citations in the order
// the model returned them.
func citationsFromGrounding(meta *genai.GroundingMetadata) []models.Citation {
	if meta == nil {
		return nil
	}
	var out []models.Citation
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil {
			continue
		}
		switch {
		case chunk.Maps != nil:
			out = append(out, models.Citation{
				Kind:    models.CitationPlace,
				Title:   chunk.Maps.Title,
				Address: chunk.Maps.Text,
				URI:     chunk.Maps.URI,
				PlaceID: chunk.Maps.PlaceID,
			})
		case chunk.Web != nil:
			title := chunk.Web.Title
			if title == "" {
				title = chunk.Web.Domain
			}
			out = append(out, models.Citation{
				Kind:  models.CitationWeb,
				Title: title,
				URI:   chunk.Web.URI,
			})
		}
	}
	return out
}
