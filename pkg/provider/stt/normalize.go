package stt

import (
	"context"
	"regexp"
	"strings"
)

// numberWords maps spelled-out German numbers to digits. Transcripts spell
// small numbers out, the extraction regexes expect digits.
var numberWords = map[string]string{
	"null": "0", "eins": "1", "ein": "1", "eine": "1", "einen": "1",
	"zwei": "2", "drei": "3", "vier": "4", "fünf": "5", "fuenf": "5",
	"sechs": "6", "sieben": "7", "acht": "8", "neun": "9", "zehn": "10",
	"elf": "11", "zwölf": "12", "zwoelf": "12", "dreizehn": "13",
	"vierzehn": "14", "fünfzehn": "15", "sechzehn": "16", "siebzehn": "17",
	"achtzehn": "18", "neunzehn": "19", "zwanzig": "20",
	"dreißig": "30", "dreissig": "30", "vierzig": "40", "fünfzig": "50",
	"sechzig": "60", "siebzig": "70", "achtzig": "80", "neunzig": "90",
	"hundert": "100",
}

var numberWordPattern = buildNumberWordPattern()

func buildNumberWordPattern() *regexp.Regexp {
	words := make([]string, 0, len(numberWords))
	for word := range numberWords {
		words = append(words, regexp.QuoteMeta(word))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

// NormalizeTranscript applies the configured misrecognition replacements and
// substitutes spelled-out number words with digits. Replacements match
// case-insensitively; viper lowercases map keys, the transcript does not.
func NormalizeTranscript(text string, replacements map[string]string) string {
	for wrong, correct := range replacements {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(wrong))
		text = pattern.ReplaceAllString(text, correct)
	}
	return numberWordPattern.ReplaceAllStringFunc(text, func(word string) string {
		return numberWords[strings.ToLower(word)]
	})
}

// normalizing wraps a backend so every transcript is normalized before it
// enters the pipeline.
type normalizing struct {
	inner        Provider
	replacements map[string]string
}

// WithNormalization decorates a provider with transcript normalization.
func WithNormalization(inner Provider, replacements map[string]string) Provider {
	return &normalizing{inner: inner, replacements: replacements}
}

func (n *normalizing) Transcribe(ctx context.Context, audio []byte) (string, error) {
	raw, err := n.inner.Transcribe(ctx, audio)
	if err != nil {
		return "", err
	}
	return NormalizeTranscript(raw, n.replacements), nil
}
