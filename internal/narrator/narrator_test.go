package narrator

import (
	"context"
	"strings"
	"testing"

	"github.com/kereth/troubles-sim/internal/rng"
)

func TestSubjectiveCalm(t *testing.T) {
	n := &Local{}
	stats := map[string]int{"tension": 30, "morale": 60, "ptsd": 10}

	got := n.Subjective(context.Background(), "Moved to The Falls Road", stats)
	if got != "Moved to The Falls Road" {
		t.Errorf("Expected objective text unchanged, got %q", got)
	}
}

func TestSubjectiveHighTensionFragments(t *testing.T) {
	n := &Local{}
	stats := map[string]int{"tension": 80, "morale": 60, "ptsd": 10}

	got := n.Subjective(context.Background(), "Witnessed: Riot on the Road", stats)
	if !strings.HasSuffix(got, "Can't think.") {
		t.Errorf("Expected fragmented suffix, got %q", got)
	}
	if !strings.Contains(got, "Witnessed:.") {
		t.Errorf("Expected word fragmentation, got %q", got)
	}
}

func TestSubjectiveHighPtsdBlurs(t *testing.T) {
	n := &Local{Rand: &rng.Sequence{Ints: []int{1}}}
	stats := map[string]int{"tension": 30, "morale": 60, "ptsd": 60}

	got := n.Subjective(context.Background(), "Rested for a while", stats)
	if !strings.HasSuffix(got, blurPhrases[1]) {
		t.Errorf("Expected blur phrase appended, got %q", got)
	}

	// Without a source the first phrase is used.
	bare := &Local{}
	got = bare.Subjective(context.Background(), "Rested for a while", stats)
	if !strings.HasSuffix(got, blurPhrases[0]) {
		t.Errorf("Expected default blur phrase, got %q", got)
	}
}

func TestSubjectiveLowMoraleDespairs(t *testing.T) {
	n := &Local{}
	stats := map[string]int{"tension": 30, "morale": 20, "ptsd": 10}

	got := n.Subjective(context.Background(), "Moved to The Docks", stats)
	if !strings.Contains(got, "What's the point?") {
		t.Errorf("Expected despair line, got %q", got)
	}

	// An absent morale meter is not low morale.
	got = n.Subjective(context.Background(), "Moved to The Docks", map[string]int{"tension": 30})
	if strings.Contains(got, "What's the point?") {
		t.Errorf("Expected no despair line without a morale meter, got %q", got)
	}
}

func TestSubjectiveDistortionsStack(t *testing.T) {
	n := &Local{}
	stats := map[string]int{"tension": 90, "morale": 10, "ptsd": 80}

	got := n.Subjective(context.Background(), "Witnessed: After the Shooting", stats)
	if !strings.Contains(got, "Can't think.") {
		t.Errorf("Expected fragmentation, got %q", got)
	}
	if !strings.Contains(got, blurPhrases[0]) {
		t.Errorf("Expected blur, got %q", got)
	}
	if !strings.Contains(got, "What's the point?") {
		t.Errorf("Expected despair, got %q", got)
	}
}
