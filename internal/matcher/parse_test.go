package matcher

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   TrackQuery
		wantOK bool
	}{
		{
			name:   "hyphen is artist - title",
			line:   "Queen - Bohemian Rhapsody",
			want:   TrackQuery{Artist: "Queen", Title: "Bohemian Rhapsody"},
			wantOK: true,
		},
		{
			name:   "en dash is title – artist",
			line:   "Bohemian Rhapsody – Queen",
			want:   TrackQuery{Artist: "Queen", Title: "Bohemian Rhapsody"},
			wantOK: true,
		},
		{
			name:   "first hyphen wins",
			line:   "Jay-Z - Song - Remix",
			want:   TrackQuery{Artist: "Jay-Z", Title: "Song - Remix"},
			wantOK: true,
		},
		{
			name:   "hyphen preferred over en dash",
			line:   "A – B - C",
			want:   TrackQuery{Artist: "A – B", Title: "C"},
			wantOK: true,
		},
		{
			name:   "no separator",
			line:   "  Yesterday  ",
			want:   TrackQuery{Artist: "unknown artist", Title: "Yesterday"},
			wantOK: true,
		},
		{
			name:   "blank",
			line:   "   \t ",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParse_SkipsBlankLines(t *testing.T) {
	text := "Queen - Bohemian Rhapsody\r\n\n   \nImagine – John Lennon\nYesterday\n"

	got := Parse(text)
	want := []TrackQuery{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "John Lennon", Title: "Imagine"},
		{Artist: UnknownArtist, Title: "Yesterday"},
	}

	if len(got) != len(want) {
		t.Fatalf("Parse() got %d queries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Parse()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNormalizeTerm(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{name: "plain", title: "Bohemian Rhapsody", artist: "Queen", want: "Bohemian Rhapsody Queen"},
		{name: "punctuation stripped", title: "Don't Stop Me Now!", artist: "Queen (Live)", want: "Dont Stop Me Now Queen Live"},
		{name: "unicode letters kept", title: "Déjà Vu", artist: "Beyoncé", want: "Déjà Vu Beyoncé"},
		{name: "truncated", title: strings.Repeat("a", 60), artist: "b", want: strings.Repeat("a", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTerm(tt.title, tt.artist); got != tt.want {
				t.Errorf("NormalizeTerm() = %q, want %q", got, tt.want)
			}
		})
	}
}
