package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DurationClass selects the target lyrics length band for a generation.
type DurationClass string

const (
	DurationShort  DurationClass = "short"
	DurationMedium DurationClass = "medium"
	DurationLong   DurationClass = "long"
)

// Field bounds in characters. Counted as runes so non-Latin scripts get the
// same creative room as ASCII.
const (
	TitleMinLen  = 3
	TitleMaxLen  = 100
	PromptMinLen = 10
	PromptMaxLen = 300
	LyricsMaxLen = 600
)

// GenerationRequest is the normalized, immutable description of one music
// generation. It is created at request ingress and never mutated afterwards.
type GenerationRequest struct {
	UserID       string
	Title        string
	Prompt       string
	Lyrics       string // optional user-supplied creative input
	Duration     DurationClass
	Language     string
	Genre        string
	AudioFormat  string // mp3 or flac
	SampleRate   int
	Bitrate      int
	WantCoverArt bool
}

// NewGenerationRequest validates raw inbound fields and returns a normalized
// request or a ValidationError naming the violated constraint. Pure: no side
// effects, no defaults pulled from ambient state.
func NewGenerationRequest(userID string, raw RawRequest) (GenerationRequest, error) {
	title := strings.TrimSpace(raw.Title)
	if n := utf8.RuneCountInString(title); n < TitleMinLen || n > TitleMaxLen {
		return GenerationRequest{}, &ValidationError{Field: "title", Message: fmt.Sprintf("length must be %d-%d", TitleMinLen, TitleMaxLen)}
	}

	prompt := strings.TrimSpace(raw.Prompt)
	if n := utf8.RuneCountInString(prompt); n < PromptMinLen || n > PromptMaxLen {
		return GenerationRequest{}, &ValidationError{Field: "prompt", Message: fmt.Sprintf("length must be %d-%d", PromptMinLen, PromptMaxLen)}
	}

	lyrics := strings.TrimSpace(raw.Lyrics)
	if lyrics != "" && utf8.RuneCountInString(lyrics) > LyricsMaxLen {
		return GenerationRequest{}, &ValidationError{Field: "lyrics", Message: fmt.Sprintf("length must be at most %d", LyricsMaxLen)}
	}

	duration := DurationClass(strings.ToLower(strings.TrimSpace(string(raw.Duration))))
	switch duration {
	case "":
		duration = DurationMedium
	case DurationShort, DurationMedium, DurationLong:
	default:
		return GenerationRequest{}, &ValidationError{Field: "duration", Message: "must be one of short, medium, long"}
	}

	format := strings.ToLower(strings.TrimSpace(raw.AudioFormat))
	switch format {
	case "":
		format = "mp3"
	case "mp3", "flac":
	case "wav":
		// lossless requests map to flac, the closest format both providers accept
		format = "flac"
	default:
		return GenerationRequest{}, &ValidationError{Field: "audio_format", Message: "must be mp3, flac or wav"}
	}

	sampleRate := raw.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}
	bitrate := raw.Bitrate
	if bitrate == 0 {
		bitrate = 256000
	}

	return GenerationRequest{
		UserID:       userID,
		Title:        title,
		Prompt:       prompt,
		Lyrics:       lyrics,
		Duration:     duration,
		Language:     strings.ToLower(strings.TrimSpace(raw.Language)),
		Genre:        strings.TrimSpace(raw.Genre),
		AudioFormat:  format,
		SampleRate:   sampleRate,
		Bitrate:      bitrate,
		WantCoverArt: raw.WantCoverArt,
	}, nil
}

// RawRequest carries unvalidated inbound fields.
type RawRequest struct {
	Title        string
	Prompt       string
	Lyrics       string
	Duration     DurationClass
	Language     string
	Genre        string
	AudioFormat  string
	SampleRate   int
	Bitrate      int
	WantCoverArt bool
}
