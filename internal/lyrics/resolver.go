package lyrics

import (
	"context"
	"strings"
	"unicode/utf8"

	"radiocore/internal/domain"
	"radiocore/internal/infra"
)

// Duration bands in characters (runes, not bytes, so Devanagari and other
// multi-byte scripts get full-length songs). Content is expanded until it
// reaches the band's floor and hard-capped at the ceiling.
const (
	shortMin  = 150
	shortMax  = 300
	mediumMin = 250
	mediumMax = 400
	longMin   = 350
	longMax   = 400

	providerMinChars = 10
	hardCap          = 400
)

// Resolver turns a request's creative input into provider-ready lyric
// content. When the user supplied lyrics those win; otherwise the prompt is
// matched against the template library. The bonus anthem is handed out at
// most once per user per day.
type Resolver struct {
	Quota  BonusQuota
	Logger infra.Logger
}

// Resolve returns the final lyric content for the request. The returned
// string always satisfies the provider minimum and the duration band's hard
// cap. ErrQuotaExceeded is returned when the prompt asks for the anthem but
// today's use is already spent.
func (r *Resolver) Resolve(ctx context.Context, userID, prompt, userLyrics string, duration domain.DurationClass) (string, error) {
	if trimmed := strings.TrimSpace(userLyrics); trimmed != "" {
		return ExpandForDuration(trimmed, duration), nil
	}

	if strings.Contains(prompt, BonusTrigger) && r.Quota != nil {
		ok, err := r.Quota.Allow(ctx, userID)
		if err != nil {
			// Quota backend trouble must not block paid generation,
			// so degrade to the regular library.
			r.Logger.Warn().Err(err).Str("user_id", userID).Msg("bonus quota check failed, using library")
		} else if !ok {
			return "", domain.ErrQuotaExceeded
		} else {
			return ExpandForDuration(BonusTemplate.Body, duration), nil
		}
	}

	tpl := Match(prompt)
	return ExpandForDuration(tpl.Body, duration), nil
}

// ExpandForDuration grows or trims content to fit the band for the requested
// duration. Expansion repeats structural sections built from the source's own
// lines so the result still reads like one song. Degenerate input is replaced
// by the fallback template before expansion.
func ExpandForDuration(content string, duration domain.DurationClass) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < providerMinChars {
		content = FallbackTemplate.Body
	}

	min, max := bandFor(duration)
	lines := nonEmptyLines(content)

	if utf8.RuneCountInString(content) < min {
		var b strings.Builder
		b.WriteString(content)
		count := utf8.RuneCountInString(content)

		appendSection := func(label string, body ...string) {
			b.WriteString("\n\n")
			b.WriteString(label)
			count += 2 + utf8.RuneCountInString(label)
			for _, line := range body {
				b.WriteString("\n")
				b.WriteString(line)
				count += 1 + utf8.RuneCountInString(line)
			}
		}

		firstVerse := firstSection(content)
		if count < min && firstVerse != "" {
			appendSection("[Verse 2]", firstVerse)
		}
		if count < min && len(lines) >= 2 {
			appendSection("[Chorus]", lines[0], lines[1])
		}
		if duration == domain.DurationLong {
			if count < min && len(lines) >= 2 {
				appendSection("[Bridge]", lines[len(lines)-2], lines[len(lines)-1])
			}
			if count < min && len(lines) >= 1 {
				appendSection("[Outro]", lines[0])
			}
		}
		content = b.String()
	}

	if runes := []rune(content); len(runes) > max {
		content = string(runes[:max-3]) + "..."
	}
	return content
}

func bandFor(duration domain.DurationClass) (int, int) {
	switch duration {
	case domain.DurationShort:
		return shortMin, shortMax
	case domain.DurationLong:
		return longMin, longMax
	default:
		return mediumMin, mediumMax
	}
}

// firstSection returns the body of the first bracketed verse-like section, or
// the first few lines when the content carries no structural tags.
func firstSection(content string) string {
	lines := strings.Split(content, "\n")
	var section []string
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			if inSection {
				break
			}
			if strings.Contains(strings.ToLower(trimmed), "verse") {
				inSection = true
			}
			continue
		}
		if inSection && trimmed != "" {
			section = append(section, trimmed)
		}
	}
	if len(section) > 0 {
		return strings.Join(section, "\n")
	}
	plain := nonEmptyLines(content)
	if len(plain) > 4 {
		plain = plain[:4]
	}
	return strings.Join(plain, "\n")
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "[") {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
