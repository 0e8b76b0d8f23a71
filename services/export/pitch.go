package export

import (
	"strings"
)

// Pitch returns the body of the first markdown section whose heading
// mentions "pitch", up to the next heading of the same or higher level.
// Without such a section the whole text is returned.
func Pitch(markdown string) string {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")

	start, end, level := -1, len(lines), 0
	var fence string
	for i, line := range lines {
		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case marker[0] == fence[0] && len(marker) >= len(fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		l, title := heading(line)
		if l == 0 {
			continue
		}
		if start >= 0 && l <= level {
			end = i
			break
		}
		if start < 0 && strings.Contains(strings.ToLower(title), "pitch") {
			start, level = i+1, l
		}
	}
	if start >= 0 {
		if body := strings.TrimSpace(strings.Join(lines[start:end], "\n")); body != "" {
			return body
		}
	}
	return strings.TrimSpace(markdown)
}

// heading reports the ATX heading level of line (0 when it is not a heading).
func heading(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return 0, ""
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, ""
	}
	return level, strings.Trim(strings.TrimSpace(rest), "#* ")
}

// fenceMarker returns the run of backticks or tildes opening or closing a
// fenced code block on line, or "" when line is not a fence.
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}
