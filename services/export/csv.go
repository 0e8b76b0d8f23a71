// Package export produces the downloadable and shareable forms of an analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/n2digital-pt/lead-lens-n2/models"
)

// CitationHeader is the first row of every citations export.
var CitationHeader = []string{"type", "name", "address", "link"}

// WriteCitationsCSV writes one row per citation after the header.
func WriteCitationsCSV(w io.Writer, citations []models.Citation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CitationHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range citations {
		row := []string{string(c.Kind), safeCell(c.Title), safeCell(c.Address), safeCell(c.URI)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CitationsFileName names the export after the analysis.
func CitationsFileName(a *models.Analysis) string {
	return fmt.Sprintf("leadlens-%s-%s.csv", a.Mode, a.ID[:min(8, len(a.ID))])
}

// safeCell flattens s to one line and quotes a leading formula character
// so spreadsheets show vendor text instead of evaluating it.
func safeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}
