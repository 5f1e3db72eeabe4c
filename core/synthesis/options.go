// Package synthesis holds the shared contract between the orchestration core
// and speech-synthesis gateway adapters.
package synthesis

// Chunk is one piece of synthesized mono PCM. Chunks arrive as a finite,
// ordered, non-restartable sequence and are concatenated before playback.
type Chunk struct {
	Samples    []float32
	SampleRate int
}

type Options struct {
	// LanguageHint selects a voice/language; adapters map it to whatever
	// their backend understands. Empty means adapter default.
	LanguageHint string
	// Voice overrides the adapter's language-derived voice choice.
	Voice string
}

type Option func(*Options)

func WithLanguageHint(languageHint string) Option {
	return func(o *Options) {
		o.LanguageHint = languageHint
	}
}

func WithVoice(voice string) Option {
	return func(o *Options) {
		o.Voice = voice
	}
}
