package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewGenerationRequest_Defaults(t *testing.T) {
	req, err := NewGenerationRequest("user-1", RawRequest{
		Title:  "Midnight Drive",
		Prompt: "a dreamy synthwave track about night driving",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Duration != DurationMedium {
		t.Fatalf("expected default duration medium, got %q", req.Duration)
	}
	if req.AudioFormat != "mp3" {
		t.Fatalf("expected default format mp3, got %q", req.AudioFormat)
	}
	if req.SampleRate != 44100 || req.Bitrate != 256000 {
		t.Fatalf("unexpected audio defaults: %d/%d", req.SampleRate, req.Bitrate)
	}
}

func TestNewGenerationRequest_WavMapsToFlac(t *testing.T) {
	req, err := NewGenerationRequest("user-1", RawRequest{
		Title:       "Lossless",
		Prompt:      "an acoustic folk song about rivers",
		AudioFormat: "WAV",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.AudioFormat != "flac" {
		t.Fatalf("expected wav to normalize to flac, got %q", req.AudioFormat)
	}
}

func TestNewGenerationRequest_Validation(t *testing.T) {
	cases := []struct {
		name  string
		raw   RawRequest
		field string
	}{
		{
			name:  "title too short",
			raw:   RawRequest{Title: "ab", Prompt: "a long enough prompt here"},
			field: "title",
		},
		{
			name:  "title too long",
			raw:   RawRequest{Title: strings.Repeat("x", 101), Prompt: "a long enough prompt here"},
			field: "title",
		},
		{
			name:  "prompt too short",
			raw:   RawRequest{Title: "Valid Title", Prompt: "short"},
			field: "prompt",
		},
		{
			name:  "prompt too long",
			raw:   RawRequest{Title: "Valid Title", Prompt: strings.Repeat("p", 301)},
			field: "prompt",
		},
		{
			name:  "lyrics too long",
			raw:   RawRequest{Title: "Valid Title", Prompt: "a long enough prompt here", Lyrics: strings.Repeat("l", 601)},
			field: "lyrics",
		},
		{
			name:  "bad duration",
			raw:   RawRequest{Title: "Valid Title", Prompt: "a long enough prompt here", Duration: "epic"},
			field: "duration",
		},
		{
			name:  "bad format",
			raw:   RawRequest{Title: "Valid Title", Prompt: "a long enough prompt here", AudioFormat: "ogg"},
			field: "audio_format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerationRequest("user-1", tc.raw)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, vErr.Field)
			}
		})
	}
}

func TestNewGenerationRequest_BoundsCountCharacters(t *testing.T) {
	// 300 Devanagari characters are 900 bytes; the bounds must count the
	// former or multi-byte scripts lose two thirds of their room.
	devLyrics := strings.Repeat("ग", 300)
	req, err := NewGenerationRequest("user-1", RawRequest{
		Title:  "शाम की धुन",
		Prompt: "तबले के साथ एक कोमल शाम की धुन",
		Lyrics: devLyrics,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Lyrics != devLyrics {
		t.Fatalf("lyrics must survive normalization unchanged")
	}

	_, err = NewGenerationRequest("user-1", RawRequest{
		Title:  "Valid Title",
		Prompt: "a long enough prompt here",
		Lyrics: strings.Repeat("ग", 601),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "lyrics" {
		t.Fatalf("601 characters must still be rejected, got %v", err)
	}
}

func TestNewGenerationRequest_NormalizesLanguage(t *testing.T) {
	req, err := NewGenerationRequest("user-1", RawRequest{
		Title:    "Shaam",
		Prompt:   "a soft evening melody with tabla",
		Language: "  HINDI ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Language != "hindi" {
		t.Fatalf("expected normalized language hindi, got %q", req.Language)
	}
}
