package lyrics

import "strings"

const (
	genreWeight = 10
	moodWeight  = 5
	tagWeight   = 3
	bodyWeight  = 1
)

// Match scores every library template against the prompt and returns the best
// one. Scoring is purely lexical so the same prompt always resolves to the
// same template: genre hits weigh most, then mood, then tags, then single
// words appearing in the body. Ties keep the earliest library entry. A prompt
// that matches nothing falls back to the first template.
func Match(prompt string) Template {
	words := tokenize(prompt)
	if len(words) == 0 {
		return Library[0]
	}

	best := Library[0]
	bestScore := 0
	for _, tpl := range Library {
		score := scoreTemplate(tpl, words)
		if score > bestScore {
			best = tpl
			bestScore = score
		}
	}
	return best
}

func scoreTemplate(tpl Template, words map[string]struct{}) int {
	score := 0
	if _, ok := words[strings.ToLower(tpl.Genre)]; ok {
		score += genreWeight
	}
	if _, ok := words[strings.ToLower(tpl.Mood)]; ok {
		score += moodWeight
	}
	for _, tag := range tpl.Tags {
		for _, part := range strings.Fields(strings.ToLower(tag)) {
			if _, ok := words[part]; ok {
				score += tagWeight
			}
		}
	}
	bodyWords := tokenize(tpl.Body)
	for w := range words {
		if _, ok := bodyWords[w]; ok {
			score += bodyWeight
		}
	}
	return score
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:'\"()[]")
		if len(w) < 3 {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}
