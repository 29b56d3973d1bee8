package repo

import (
	"encoding/json"
	"strings"
)

// extractCreativeFields pulls hook and trendingAudioTip values out of a
// stored generator span output. The output is the model's raw JSON, so a
// tolerant partial decode is enough; anything unparsable contributes
// nothing to the avoid lists.
func extractCreativeFields(output string) (hooks []string, songs []string) {
	type option struct {
		Hook  string `json:"hook"`
		Music struct {
			TrendingAudioTip string `json:"trendingAudioTip"`
		} `json:"music"`
	}
	var payload struct {
		Options []option `json:"options"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return nil, nil
	}
	for _, o := range payload.Options {
		if h := strings.TrimSpace(o.Hook); h != "" {
			hooks = append(hooks, h)
		}
		if s := strings.TrimSpace(o.Music.TrendingAudioTip); s != "" {
			songs = append(songs, s)
		}
	}
	return hooks, songs
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
