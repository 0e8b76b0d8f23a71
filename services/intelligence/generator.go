package ai

import (
	"context"

	"github.com/n2digital-pt/lead-lens-n2/models"
)

// Grounding selects the hosted tool a generation may consult.
type Grounding int

const (
	GroundingNone Grounding = iota
	GroundingSearch
	GroundingMaps
)

func (g Grounding) String() string {
	switch g {
	case GroundingSearch:
		return "google_search"
	case GroundingMaps:
		return "google_maps"
	default:
		return "none"
	}
}

// ImagePart is an inline image sent alongside the prompt text.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// Prompt is everything a Generator needs for one call.
type Prompt struct {
	Mode      models.Mode
	System    string
	Text      string
	Image     *ImagePart
	Grounding Grounding
	Location  *models.GeoPoint
	Language  string
}

// Generation is the raw vendor answer before formatting.
type Generation struct {
	Text      string
	Citations []models.Citation
	Model     string
}

// Generator sends one prompt to a hosted model.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (*Generation, error)
}
