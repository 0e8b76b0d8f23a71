package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient sends ungrounded multimodal prompts (photo analysis).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Generate(ctx context.Context, p Prompt) (*Generation, error) {
	if p.Grounding != GroundingNone {
		return nil, fmt.Errorf("gemini client does not support %s grounding", p.Grounding)
	}

	model := g.client.GenerativeModel(g.modelName)
	if p.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	model.SetTemperature(0.7)

	var parts []genai.Part
	if p.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: p.Image.MIMEType, Data: p.Image.Data})
	}
	parts = append(parts, genai.Text(p.Text))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &VendorError{Op: "gemini generate", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &VendorError{Op: "gemini generate", Err: ErrEmptyResponse}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return &Generation{Text: sb.String(), Model: g.modelName}, nil
}
