package music

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AudioURL extracts the single playable audio URL from a provider's raw
// output. Providers disagree on shape: a bare string, an array of strings,
// {"url": ...}, {"audio": {"url": ...}} and {"output": ...} wrappers all
// occur in the wild. Anything else is an error rather than a guess.
func AudioURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty provider output")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return validateURL(s)
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return validateURL(arr[0])
	}

	var obj struct {
		URL   string `json:"url"`
		Audio *struct {
			URL string `json:"url"`
		} `json:"audio"`
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.URL != "" {
			return validateURL(obj.URL)
		}
		if obj.Audio != nil && obj.Audio.URL != "" {
			return validateURL(obj.Audio.URL)
		}
		if len(obj.Output) > 0 {
			return AudioURL(obj.Output)
		}
	}

	return "", fmt.Errorf("unrecognized provider output shape")
}

func validateURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", fmt.Errorf("provider output is not a url")
	}
	return s, nil
}
