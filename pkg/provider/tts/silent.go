package tts

import "context"

// SilentSynthesizer returns no audio. It is the default for text-only
// deployments and test setups without a speech backend.
type SilentSynthesizer struct{}

// Synthesize returns an empty payload.
func (SilentSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func init() {
	RegisterProvider("silent", func(Config) (Provider, error) {
		return SilentSynthesizer{}, nil
	})
}
