package ai

import (
	"bytes"
	"embed"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/n2digital-pt/lead-lens-n2/models"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

// supportedImageTypes are the inline image formats Gemini accepts.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// PromptBuilder turns validated requests into prompts.
type PromptBuilder struct {
	DefaultLanguage string
	MaxImageBytes   int64
}

func (b PromptBuilder) language(requested string) string {
	if l := strings.TrimSpace(requested); l != "" {
		return l
	}
	if b.DefaultLanguage != "" {
		return b.DefaultLanguage
	}
	return "English"
}

func executePrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (b PromptBuilder) system(language string) (string, error) {
	return executePrompt("system.tmpl", struct{ Language string }{language})
}

// DetectImageType sniffs data and falls back to the declared type for
// formats the sniffer does not know (HEIC/HEIF).
func DetectImageType(data []byte, declared string) (string, error) {
	sniffed := http.DetectContentType(data)
	if supportedImageTypes[sniffed] {
		return sniffed, nil
	}
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if sniffed == "application/octet-stream" && supportedImageTypes[declared] {
		return declared, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, sniffed)
}

// BuildImagePrompt validates a photo request and renders the image template.
func (b PromptBuilder) BuildImagePrompt(req models.ImageLeadRequest) (Prompt, error) {
	if len(req.Image) == 0 {
		return Prompt{}, missing("image")
	}
	if b.MaxImageBytes > 0 && int64(len(req.Image)) > b.MaxImageBytes {
		return Prompt{}, fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(req.Image), b.MaxImageBytes)
	}
	mimeType, err := DetectImageType(req.Image, req.MIMEType)
	if err != nil {
		return Prompt{}, err
	}

	language := b.language(req.Language)
	system, err := b.system(language)
	if err != nil {
		return Prompt{}, err
	}
	text, err := executePrompt("image.tmpl", struct {
		BusinessName string
		Notes        string
	}{strings.TrimSpace(req.BusinessName), strings.TrimSpace(req.Notes)})
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		Mode:      models.ModeImage,
		System:    system,
		Text:      text,
		Image:     &ImagePart{MIMEType: mimeType, Data: req.Image},
		Grounding: GroundingNone,
		Language:  language,
	}, nil
}

// BuildSearchPrompt validates a map search and renders the search template.
func (b PromptBuilder) BuildSearchPrompt(req models.MapSearchRequest) (Prompt, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Prompt{}, missing("query")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return Prompt{}, &InputError{Field: "location", Reason: "latitude and longitude must be given together"}
	}
	loc := req.Location()
	if loc != nil && (loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180) {
		return Prompt{}, &InputError{Field: "location", Reason: "coordinates are out of range"}
	}

	language := b.language(req.Language)
	system, err := b.system(language)
	if err != nil {
		return Prompt{}, err
	}
	text, err := executePrompt("search.tmpl", struct {
		Query       string
		HasLocation bool
	}{query, loc != nil})
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		Mode:      models.ModeSearch,
		System:    system,
		Text:      text,
		Grounding: GroundingMaps,
		Location:  loc,
		Language:  language,
	}, nil
}

// BuildAuditPrompt validates a text audit and renders the audit template.
// site may be nil when no website was given.
func (b PromptBuilder) BuildAuditPrompt(req models.TextAuditRequest, site *WebsiteSnapshot) (Prompt, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return Prompt{}, missing("description")
	}

	language := b.language(req.Language)
	system, err := b.system(language)
	if err != nil {
		return Prompt{}, err
	}
	text, err := executePrompt("audit.tmpl", struct {
		Description string
		Website     *WebsiteSnapshot
	}{description, site})
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		Mode:      models.ModeAudit,
		System:    system,
		Text:      text,
		Grounding: GroundingSearch,
		Language:  language,
	}, nil
}
