package matcher

import (
	"strings"
	"unicode"
)

// UnknownArtist is used when a line carries no recognisable separator.
const UnknownArtist = "unknown artist"

const maxTermLength = 50

// TrackQuery is a free-text (artist, title) pair to resolve against the catalog.
type TrackQuery struct {
	Artist string `json:"artist"`
	Title  string `json:"title" validate:"required"`
}

// Parse splits pasted playlist text into queries, one per non-blank line.
func Parse(text string) []TrackQuery {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	queries := make([]TrackQuery, 0, len(lines))
	for _, line := range lines {
		if q, ok := ParseLine(line); ok {
			queries = append(queries, q)
		}
	}
	return queries
}

// ParseLine parses a single line. A hyphen separator reads "Artist - Title",
// an en-dash separator reads "Title – Artist". Without either the whole line
// is the title. ok is false for blank lines.
func ParseLine(line string) (TrackQuery, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return TrackQuery{}, false
	}

	if artist, title, found := strings.Cut(line, " - "); found {
		return TrackQuery{Artist: strings.TrimSpace(artist), Title: strings.TrimSpace(title)}, true
	}
	if title, artist, found := strings.Cut(line, " – "); found {
		return TrackQuery{Artist: strings.TrimSpace(artist), Title: strings.TrimSpace(title)}, true
	}
	return TrackQuery{Artist: UnknownArtist, Title: line}, true
}

// NormalizeTerm builds the catalog search term "{title} {artist}", keeping
// only letters, digits and whitespace, truncated to 50 characters.
func NormalizeTerm(title, artist string) string {
	raw := title + " " + artist

	var b strings.Builder
	b.Grow(len(raw))
	n := 0
	for _, r := range raw {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			continue
		}
		if n == maxTermLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
