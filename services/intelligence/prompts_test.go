package ai

import (
	"errors"
	"testing"

	"github.com/n2digital-pt/lead-lens-n2/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01")
	heicBytes = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c', 0x00, 0x00, 0x00, 0x00}
)

func floatPtr(f float64) *float64 { return &f }

func TestExecutePrompt(t *testing.T) {
	out, err := executePrompt("system.tmpl", struct{ Language string }{"Portuguese"})
	require.NoError(t, err)
	assert.Contains(t, out, "Portuguese")

	_, err = executePrompt("missing.tmpl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.tmpl")
}

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
		wantErr  bool
	}{
		{"png sniffed", pngBytes, "", "image/png", false},
		{"jpeg sniffed over wrong declaration", jpegBytes, "image/png", "image/jpeg", false},
		{"heic trusted from declaration", heicBytes, "image/HEIC", "image/heic", false},
		{"unknown binary without declaration", heicBytes, "", "", true},
		{"text is never an image", []byte("hello world"), "image/png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectImageType(tt.data, tt.declared)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildImagePrompt(t *testing.T) {
	b := PromptBuilder{DefaultLanguage: "Portuguese", MaxImageBytes: 1024}

	p, err := b.BuildImagePrompt(models.ImageLeadRequest{
		Image:        pngBytes,
		BusinessName: "  Padaria Central ",
		Notes:        "Opens at 7am",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ModeImage, p.Mode)
	assert.Equal(t, GroundingNone, p.Grounding)
	assert.Equal(t, "Portuguese", p.Language)
	assert.Contains(t, p.System, "Answer in Portuguese.")
	assert.Contains(t, p.Text, `called "Padaria Central"`)
	assert.Contains(t, p.Text, "Opens at 7am")
	require.NotNil(t, p.Image)
	assert.Equal(t, "image/png", p.Image.MIMEType)
}

func TestBuildImagePrompt_Validation(t *testing.T) {
	b := PromptBuilder{MaxImageBytes: 8}

	_, err := b.BuildImagePrompt(models.ImageLeadRequest{})
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "image", inputErr.Field)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = b.BuildImagePrompt(models.ImageLeadRequest{Image: pngBytes})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = PromptBuilder{}.BuildImagePrompt(models.ImageLeadRequest{Image: []byte("plain text")})
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestBuildSearchPrompt(t *testing.T) {
	b := PromptBuilder{}

	p, err := b.BuildSearchPrompt(models.MapSearchRequest{
		Query:     " vegan restaurants in Lisbon ",
		Latitude:  floatPtr(38.72),
		Longitude: floatPtr(-9.14),
		Language:  "Spanish",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ModeSearch, p.Mode)
	assert.Equal(t, GroundingMaps, p.Grounding)
	assert.Equal(t, "Spanish", p.Language)
	assert.Contains(t, p.Text, `"vegan restaurants in Lisbon"`)
	assert.Contains(t, p.Text, "current location")
	require.NotNil(t, p.Location)
	assert.Equal(t, 38.72, p.Location.Latitude)

	p, err = b.BuildSearchPrompt(models.MapSearchRequest{Query: "barbers"})
	require.NoError(t, err)
	assert.Nil(t, p.Location)
	assert.NotContains(t, p.Text, "current location")
	assert.Equal(t, "English", p.Language)
}

func TestBuildSearchPrompt_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.MapSearchRequest
		field string
	}{
		{"blank query", models.MapSearchRequest{Query: "   "}, "query"},
		{"latitude only", models.MapSearchRequest{Query: "x", Latitude: floatPtr(1)}, "location"},
		{"out of range", models.MapSearchRequest{Query: "x", Latitude: floatPtr(91), Longitude: floatPtr(0)}, "location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PromptBuilder{}.BuildSearchPrompt(tt.req)
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestBuildAuditPrompt(t *testing.T) {
	b := PromptBuilder{}

	_, err := b.BuildAuditPrompt(models.TextAuditRequest{Description: "\n"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := b.BuildAuditPrompt(models.TextAuditRequest{Description: "Family dentist in Braga"}, nil)
	require.NoError(t, err)
	assert.Equal(t, GroundingSearch, p.Grounding)
	assert.Contains(t, p.Text, "Family dentist in Braga")
	assert.NotContains(t, p.Text, "Website:")

	site := &WebsiteSnapshot{
		URL:       "https://dentist.example",
		Reachable: true,
		Title:     "Smile Braga",
		Headings:  []string{"Treatments", "Contact"},
		Excerpt:   "We care for your smile.",
	}
	p, err = b.BuildAuditPrompt(models.TextAuditRequest{Description: "Family dentist"}, site)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Website: https://dentist.example")
	assert.Contains(t, p.Text, "- Title: Smile Braga")
	assert.Contains(t, p.Text, "- Meta description: (none)")
	assert.Contains(t, p.Text, "- Headings: Treatments | Contact")

	p, err = b.BuildAuditPrompt(models.TextAuditRequest{Description: "Family dentist"}, &WebsiteSnapshot{URL: "https://down.example"})
	require.NoError(t, err)
	assert.Contains(t, p.Text, "could not be read")
}
