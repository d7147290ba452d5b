package mention

import (
	"testing"

	"github.com/jarboard/backend/internal/types"
)

func wantNames(t *testing.T, got map[string]struct{}, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("name set size: want=%d got=%d (%v)", len(want), len(got), got)
	}
	for _, name := range want {
		if _, ok := got[name]; !ok {
			t.Fatalf("missing name %q in %v", name, got)
		}
	}
}

func TestScanAllExtractsJarAndTagSets(t *testing.T) {
	res := ScanAll("move @work stuff into @archive, label #urgent #later and @work again")
	wantNames(t, res.JarNames, "work", "archive")
	wantNames(t, res.TagNames, "urgent", "later")
	if res.Priority != nil {
		t.Fatalf("priority: want none, got %v", *res.Priority)
	}
}

func TestScanAllCaseSensitiveDedup(t *testing.T) {
	res := ScanAll("@Alpha @alpha @Alpha #Beta #beta")
	wantNames(t, res.JarNames, "Alpha", "alpha")
	wantNames(t, res.TagNames, "Beta", "beta")
}

func TestScanAllPriorityAliases(t *testing.T) {
	cases := map[string]types.Priority{
		"!very-low": types.PriorityVeryLow,
		"!vlow":     types.PriorityVeryLow,
		"!vl":       types.PriorityVeryLow,
		"!low":      types.PriorityLow,
		"!l":        types.PriorityLow,
		"!medium":   types.PriorityMedium,
		"!med":      types.PriorityMedium,
		"!m":        types.PriorityMedium,
		"!high":     types.PriorityHigh,
		"!h":        types.PriorityHigh,
		"!VERY-HIGH": types.PriorityVeryHigh,
		"!vhigh":    types.PriorityVeryHigh,
		"!vh":       types.PriorityVeryHigh,
	}
	for token, want := range cases {
		res := ScanAll("do the thing " + token)
		if res.Priority == nil {
			t.Fatalf("token %q: want priority %v, got none", token, want)
		}
		if *res.Priority != want {
			t.Fatalf("token %q: want %v got %v", token, want, *res.Priority)
		}
	}
}

func TestScanAllFirstPriorityWins(t *testing.T) {
	res := ScanAll("!high then !low")
	if res.Priority == nil || *res.Priority != types.PriorityHigh {
		t.Fatalf("want first token (high) to win, got %v", res.Priority)
	}
}

func TestScanAllUnknownPriorityIgnored(t *testing.T) {
	res := ScanAll("ship it !urgentish")
	if res.Priority != nil {
		t.Fatalf("unknown alias should yield no priority, got %v", *res.Priority)
	}
	// The first token is the one honored even when unknown.
	res = ScanAll("ship it !urgentish !low")
	if res.Priority != nil {
		t.Fatalf("unknown first alias should not fall through, got %v", *res.Priority)
	}
}

func TestScanAllBareSigilsYieldNothing(t *testing.T) {
	for _, text := range []string{"", "no mentions here", "@ # !", "trailing @"} {
		res := ScanAll(text)
		if len(res.JarNames) != 0 || len(res.TagNames) != 0 || res.Priority != nil {
			t.Fatalf("text %q: want empty result, got %+v", text, res)
		}
	}
}

func TestScanAllMaximalRuns(t *testing.T) {
	res := ScanAll("@multi-word_name9 stops.at punctuation@tail")
	wantNames(t, res.JarNames, "multi-word_name9", "tail")
}

func TestScanAtInsideToken(t *testing.T) {
	m := ScanAt("todo @wo", 8)
	if m == nil {
		t.Fatal("want active mention, got nil")
	}
	if m.Kind != KindJar || m.Query != "wo" || m.Start != 5 || m.End != 8 {
		t.Fatalf("got %+v", *m)
	}
}

func TestScanAtTruncatesToCaret(t *testing.T) {
	m := ScanAt("todo @work done", 8)
	if m == nil {
		t.Fatal("want active mention, got nil")
	}
	if m.Kind != KindJar || m.Query != "wo" || m.Start != 5 || m.End != 8 {
		t.Fatalf("got %+v", *m)
	}
}

func TestScanAtBareSigil(t *testing.T) {
	m := ScanAt("note #", 6)
	if m == nil {
		t.Fatal("bare sigil should be an active mention")
	}
	if m.Kind != KindTag || m.Query != "" || m.Start != 5 || m.End != 6 {
		t.Fatalf("got %+v", *m)
	}
}

func TestScanAtNoActiveMention(t *testing.T) {
	if m := ScanAt("plain words", 5); m != nil {
		t.Fatalf("want nil, got %+v", *m)
	}
	if m := ScanAt("x ", 2); m != nil {
		t.Fatalf("caret after whitespace: want nil, got %+v", *m)
	}
	if m := ScanAt("abc", 9); m != nil {
		t.Fatalf("caret out of range: want nil, got %+v", *m)
	}
}

func TestScanAtPrioritySigil(t *testing.T) {
	m := ScanAt("ship !hi", 8)
	if m == nil || m.Kind != KindPriority || m.Query != "hi" {
		t.Fatalf("got %+v", m)
	}
}

func TestStripPriority(t *testing.T) {
	cases := map[string]string{
		"pay rent !high":          "pay rent",
		"!vh pay rent":            "pay rent",
		"pay !med rent":           "pay rent",
		"pay rent":                "pay rent",
		"pay rent !urgentish":     "pay rent !urgentish",
		"keep @jar and #tag !low": "keep @jar and #tag",
	}
	for in, want := range cases {
		if got := StripPriority(in); got != want {
			t.Fatalf("StripPriority(%q): want %q got %q", in, want, got)
		}
	}
}
