package styles

import (
	"reflect"
	"testing"

	"github.com/liquidbooks/liquidbooks/internal/tone"
)

func neutralTone() tone.Profile {
	return tone.Profile{
		Formality: 50, Warmth: 50, Humor: 50, Authority: 50, Empathy: 50,
		Directness: 50, Complexity: 50, Creativity: 50, Emotionality: 50, Assertiveness: 50,
	}
}

func TestRecommend_NeutralProfileGetsFallback(t *testing.T) {
	got := Recommend(neutralTone())
	if !reflect.DeepEqual(got, fallbackIDs) {
		t.Errorf("neutral profile = %v, want fallback %v", got, fallbackIDs)
	}
}

func TestRecommend_AcademicRule(t *testing.T) {
	tp := neutralTone()
	tp.Formality = 80
	tp.Authority = 70

	got := Recommend(tp)
	for _, want := range []string{"joan-didion", "susan-sontag", "malcolm-gladwell", "yuval-noah-harari"} {
		if !contains(got, want) {
			t.Errorf("formality=80/authority=70 missing %q: %v", want, got)
		}
	}
}

func TestRecommend_MultipleRulesAccumulate(t *testing.T) {
	tp := neutralTone()
	tp.Formality = 80
	tp.Authority = 70
	tp.Directness = 80
	tp.Assertiveness = 70

	got := Recommend(tp)
	if !contains(got, "joan-didion") || !contains(got, "ernest-hemingway") {
		t.Errorf("expected identifiers from both matched rules: %v", got)
	}
}

func TestRecommend_CapAtEight(t *testing.T) {
	tp := tone.Profile{
		Formality: 90, Warmth: 90, Humor: 90, Authority: 90, Empathy: 90,
		Directness: 90, Complexity: 90, Creativity: 90, Emotionality: 90, Assertiveness: 90,
	}
	got := Recommend(tp)
	if len(got) > 8 {
		t.Errorf("got %d identifiers, cap is 8: %v", len(got), got)
	}
	seen := make(map[string]bool)
	for _, id := range got {
		if seen[id] {
			t.Errorf("duplicate identifier %q: %v", id, got)
		}
		seen[id] = true
	}
}

func TestRecommend_AlwaysAtLeastThree(t *testing.T) {
	profiles := []tone.Profile{
		{}, // all zero
		neutralTone(),
		{Formality: 100}, // no rule matches on one axis alone
	}
	for _, tp := range profiles {
		if got := Recommend(tp); len(got) < 3 {
			t.Errorf("profile %+v produced %d identifiers, want >= 3", tp, len(got))
		}
	}
}

func TestRecommend_OrderIsStable(t *testing.T) {
	tp := neutralTone()
	tp.Humor = 80
	tp.Warmth = 80

	a := Recommend(tp)
	b := Recommend(tp)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("recommendation order unstable: %v vs %v", a, b)
	}
}

func TestCatalog_CoversRecommendableIDs(t *testing.T) {
	for _, r := range rules {
		for _, id := range r.ids {
			if _, ok := Lookup(id); !ok {
				t.Errorf("rule identifier %q missing from catalog", id)
			}
		}
	}
	for _, id := range fallbackIDs {
		if _, ok := Lookup(id); !ok {
			t.Errorf("fallback identifier %q missing from catalog", id)
		}
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
