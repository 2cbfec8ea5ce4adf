// Package narrator turns the objective text of a journal entry into
// the player's subjective rendering of it. The engine records both;
// only the subjective line varies with the player's mental state.
package narrator

import (
	"context"
	"strings"

	"github.com/kereth/troubles-sim/internal/rng"
)

// Narrator produces the subjective journal line for an objective one.
// Implementations must fall back to returning the objective text on
// any failure; journal writing never blocks a turn.
type Narrator interface {
	Subjective(ctx context.Context, objective string, stats map[string]int) string
}

// Distortion thresholds, from the player's meters.
const (
	tensionFragments = 70
	ptsdBlurs        = 50
	moraleDespairs   = 30
)

var blurPhrases = []string{
	"...it's all a blur.",
	"...the sounds won't stop.",
}

// Local is the deterministic narrator: fixed distortion rules keyed on
// the player's meters.
type Local struct {
	Rand rng.Source
}

func (l *Local) Subjective(_ context.Context, objective string, stats map[string]int) string {
	text := objective

	if stats["tension"] > tensionFragments {
		stripped := strings.NewReplacer(".", "", "!", "", "?", "").Replace(objective)
		words := strings.Fields(stripped)
		for i, w := range words {
			words[i] = w + "."
		}
		text = strings.Join(words, " ") + " Can't think."
	}

	if stats["ptsd"] > ptsdBlurs {
		phrase := blurPhrases[0]
		if l.Rand != nil {
			phrase = blurPhrases[l.Rand.IntN(len(blurPhrases))]
		}
		text += " " + phrase
	}

	if morale, ok := stats["morale"]; ok && morale < moraleDespairs {
		text += " Another day, another tragedy. What's the point?"
	}

	return text
}
