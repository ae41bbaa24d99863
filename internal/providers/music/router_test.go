package music

import (
	"context"
	"testing"
)

type namedProvider struct{ name string }

func (p *namedProvider) Name() string { return p.name }
func (p *namedProvider) Submit(ctx context.Context, in JobInput) (Handle, error) {
	return Handle{}, nil
}
func (p *namedProvider) Status(ctx context.Context, h Handle) (Poll, error) {
	return Poll{}, nil
}

func testRouter() *Router {
	return &Router{
		Replicate: &namedProvider{name: NameReplicate},
		Fal:       &namedProvider{name: NameFal},
	}
}

func TestPick_Routing(t *testing.T) {
	cases := []struct {
		name     string
		language string
		content  string
		want     string
	}{
		{"default english", "english", "walking down the street tonight", NameReplicate},
		{"empty language", "", "some plain lyrics", NameReplicate},
		{"declared hindi", "hindi", "plain latin lyrics", NameFal},
		{"declared urdu", "urdu", "plain latin lyrics", NameFal},
		{"declared punjabi", "punjabi", "plain latin lyrics", NameFal},
		{"declared tamil", "tamil", "plain latin lyrics", NameFal},
		{"declared telugu", "telugu", "plain latin lyrics", NameFal},
		{"declared bengali", "bengali", "plain latin lyrics", NameFal},
		{"declared bhojpuri", "bhojpuri", "plain latin lyrics", NameFal},
		{"bcp47 hindi tag", "hi", "plain latin lyrics", NameFal},
		{"french stays default", "french", "plain latin lyrics", NameReplicate},
		{"devanagari overrides english", "english", "दिल की बात सुनो", NameFal},
		{"bengali script overrides", "english", "ভালোবাসার গান", NameFal},
		{"tamil script overrides", "spanish", "காதல் பாடல்", NameFal},
		{"urdu script overrides", "english", "دل کی بات", NameFal},
		{"gujarati script overrides", "english", "પ્રેમ નું ગીત", NameFal},
		{"kannada script overrides", "english", "ಪ್ರೀತಿಯ ಹಾಡು", NameFal},
		{"malayalam script overrides", "english", "പ്രണയ ഗാനം", NameFal},
		{"mixed script triggers override", "english", "my heart sings दिल से", NameFal},
	}

	r := testRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Pick(tc.language, tc.content).Name(); got != tc.want {
				t.Fatalf("Pick(%q, %q) = %s, want %s", tc.language, tc.content, got, tc.want)
			}
		})
	}
}

func TestPick_Idempotent(t *testing.T) {
	r := testRouter()
	first := r.Pick("hindi", "some lyrics").Name()
	for i := 0; i < 10; i++ {
		if got := r.Pick("hindi", "some lyrics").Name(); got != first {
			t.Fatalf("routing must be stable across retries: %s vs %s", got, first)
		}
	}
}
