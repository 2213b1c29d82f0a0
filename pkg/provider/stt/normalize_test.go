package stt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTranscript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "number words become digits",
			in:   "drei Stunden und fünf Eimer Farbe",
			want: "3 Stunden und 5 Eimer Farbe",
		},
		{
			name: "case insensitive",
			in:   "Zwanzig Kilometer Anfahrt",
			want: "20 Kilometer Anfahrt",
		},
		{
			name: "word boundaries respected",
			in:   "Der Scheinwerfer bleibt",
			want: "Der Scheinwerfer bleibt",
		},
		{
			name: "umlaut variants",
			in:   "zwölf oder zwoelf",
			want: "12 oder 12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTranscript(tt.in, nil))
		})
	}
}

func TestNormalizeTranscriptReplacements(t *testing.T) {
	got := NormalizeTranscript("Der Gazelle hat vier Stunden gearbeitet",
		map[string]string{"Gazelle": "Geselle"})
	assert.Equal(t, "Der Geselle hat 4 Stunden gearbeitet", got)

	// Configuration keys arrive lowercased; the transcript is not.
	got = NormalizeTranscript("Der Gazelle hat vier Stunden gearbeitet",
		map[string]string{"gazelle": "Geselle"})
	assert.Equal(t, "Der Geselle hat 4 Stunden gearbeitet", got)
}

type staticTranscriber struct {
	text string
	err  error
}

func (s staticTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return s.text, s.err
}

func TestWithNormalization(t *testing.T) {
	provider := WithNormalization(staticTranscriber{text: "zwei Fenster"}, nil)

	got, err := provider.Transcribe(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2 Fenster", got)
}
