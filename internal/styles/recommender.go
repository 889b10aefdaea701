// Package styles maps a tone profile to reference-author identifiers and
// holds the display catalog those identifiers resolve to.
package styles

import "github.com/liquidbooks/liquidbooks/internal/tone"

const maxRecommendations = 8

// styleRule is one recommendation rule: a conjunction of tone-axis threshold
// tests contributing a fixed identifier set when satisfied. Rules are
// evaluated in order and a profile may satisfy several.
type styleRule struct {
	match func(t tone.Profile) bool
	ids   []string
}

var rules = []styleRule{
	{
		// Formal, authoritative voices: the academic styles.
		match: func(t tone.Profile) bool { return t.Formality > 70 && t.Authority > 60 },
		ids:   []string{"joan-didion", "susan-sontag", "malcolm-gladwell", "yuval-noah-harari"},
	},
	{
		match: func(t tone.Profile) bool { return t.Creativity > 70 && t.Complexity > 60 },
		ids:   []string{"ursula-k-le-guin", "david-mitchell", "jorge-luis-borges"},
	},
	{
		match: func(t tone.Profile) bool { return t.Humor > 70 && t.Warmth > 60 },
		ids:   []string{"david-sedaris", "nora-ephron", "bill-bryson"},
	},
	{
		match: func(t tone.Profile) bool { return t.Directness > 70 && t.Assertiveness > 60 },
		ids:   []string{"ernest-hemingway", "raymond-carver", "george-orwell"},
	},
	{
		match: func(t tone.Profile) bool { return t.Empathy > 70 && t.Emotionality > 60 },
		ids:   []string{"ann-patchett", "celeste-ng", "kazuo-ishiguro"},
	},
	{
		match: func(t tone.Profile) bool { return t.Warmth > 70 && t.Humor > 40 && t.Formality <= 50 },
		ids:   []string{"fredrik-backman", "maeve-binchy", "tj-klune"},
	},
}

// fallbackIDs guarantees every profile gets at least three recommendations.
var fallbackIDs = []string{"stephen-king", "anne-lamott", "william-zinsser"}

// Recommend returns an ordered, deduplicated list of at most eight author
// identifiers for the given tone profile. It is total: when fewer than three
// unique identifiers match, the fallback set is appended.
func Recommend(t tone.Profile) []string {
	var ids []string
	for _, r := range rules {
		if r.match(t) {
			ids = append(ids, r.ids...)
		}
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, maxRecommendations)
	appendUnique := func(candidates []string) {
		for _, id := range candidates {
			if seen[id] || len(out) == maxRecommendations {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}

	appendUnique(ids)
	if len(out) < 3 {
		appendUnique(fallbackIDs)
	}
	return out
}
