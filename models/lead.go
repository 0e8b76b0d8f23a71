package models

import "time"

// Mode selects which prompt template and grounding tool a lead request uses.
type Mode string

const (
	ModeImage  Mode = "image"  // business photo analysis
	ModeSearch Mode = "search" // map search grounded on Google Maps
	ModeAudit  Mode = "audit"  // text audit grounded on Google Search
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeImage, ModeSearch, ModeAudit:
		return true
	}
	return false
}

// GeoPoint is an optional search origin.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ImageLeadRequest carries a business photo to analyse.
type ImageLeadRequest struct {
	Image        []byte `json:"-"`
	MIMEType     string `json:"mimeType"`
	FileName     string `json:"fileName,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Language     string `json:"language,omitempty"`
}

// MapSearchRequest is a free-text query for businesses on the map.
type MapSearchRequest struct {
	Query     string   `json:"query"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Language  string   `json:"language,omitempty"`
}

// Location returns the search origin when both coordinates are set.
func (r MapSearchRequest) Location() *GeoPoint {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// TextAuditRequest describes a business in prose, optionally with its website.
type TextAuditRequest struct {
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	Language    string `json:"language,omitempty"`
}

// CitationKind tells web links and map places apart.
type CitationKind string

const (
	CitationWeb   CitationKind = "web"
	CitationPlace CitationKind = "place"
)

// Citation is one grounding source attached to a generated answer.
type Citation struct {
	Kind    CitationKind `json:"kind"`
	Title   string       `json:"title"`
	Address string       `json:"address,omitempty"`
	URI     string       `json:"uri,omitempty"`
	PlaceID string       `json:"placeId,omitempty"`
}

// Key identifies a citation for de-duplication.
func (c Citation) Key() string {
	if c.PlaceID != "" {
		return "place:" + c.PlaceID
	}
	if c.URI != "" {
		return "uri:" + c.URI
	}
	return "title:" + c.Title
}

// Analysis is the uniform result of every mode.
type Analysis struct {
	ID        string     `json:"id"`
	Mode      Mode       `json:"mode"`
	Text      string     `json:"text"`
	HTML      string     `json:"html"`
	Citations []Citation `json:"citations"`
	Model     string     `json:"model,omitempty"`
	Language  string     `json:"language,omitempty"`
	PhotoURL  string     `json:"photoUrl,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
