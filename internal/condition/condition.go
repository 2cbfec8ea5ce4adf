// Package condition evaluates trigger conditions and choice
// requirements against the current player and session state.
//
// Evaluation is pure: no condition check mutates anything. Unknown
// operators resolve to "not satisfied"; the offline validator is the
// place where they get reported.
package condition

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Env is the read-only slice of game state conditions are checked
// against. Triggered reports session-scoped event-trigger membership;
// it may be nil when no event engine is in play.
type Env struct {
	CharacterID  string
	Location     string
	Stats        map[string]int
	Inventory    []string
	Reputation   map[string]int
	Flags        map[string]any
	ChoicesMade  int
	SessionStart time.Time
	Now          time.Time
	Triggered    func(id string) bool
}

func (e Env) hasItem(id string) bool {
	for _, it := range e.Inventory {
		if it == id {
			return true
		}
	}
	return false
}

// Conditions is the trigger-condition set attached to events. All
// declared keys must pass (logical AND). Zero-valued stat bounds are
// treated as undeclared.
type Conditions struct {
	MinTension int `yaml:"min_tension,omitempty"`
	MaxTension int `yaml:"max_tension,omitempty"`
	MinMorale  int `yaml:"min_morale,omitempty"`
	MaxMorale  int `yaml:"max_morale,omitempty"`
	MinPtsd    int `yaml:"min_ptsd,omitempty"`
	MaxPtsd    int `yaml:"max_ptsd,omitempty"`

	CharacterID   string                  `yaml:"character_id,omitempty"`
	RequiredItems []string                `yaml:"required_items,omitempty"`
	Reputation    map[string]FactionRange `yaml:"faction_reputation,omitempty"`

	ExcludeIfTriggered []string `yaml:"exclude_if_triggered,omitempty"`
	MinChoices         int      `yaml:"min_choices,omitempty"`

	// TimeInGame is the minimum elapsed session time, in seconds.
	TimeInGame int `yaml:"time_in_game,omitempty"`
}

// Met reports whether every declared condition holds for env.
func (c *Conditions) Met(env Env) bool {
	if c == nil {
		return true
	}

	type bound struct {
		stat     string
		min, max int
	}
	for _, b := range []bound{
		{"tension", c.MinTension, c.MaxTension},
		{"morale", c.MinMorale, c.MaxMorale},
		{"ptsd", c.MinPtsd, c.MaxPtsd},
	} {
		actual := env.Stats[b.stat]
		if b.min != 0 && actual < b.min {
			return false
		}
		if b.max != 0 && actual > b.max {
			return false
		}
	}

	if c.CharacterID != "" && env.CharacterID != c.CharacterID {
		return false
	}

	for _, item := range c.RequiredItems {
		if !env.hasItem(item) {
			return false
		}
	}

	for faction, want := range c.Reputation {
		if !want.contains(env.Reputation[faction]) {
			return false
		}
	}

	if env.Triggered != nil {
		for _, id := range c.ExcludeIfTriggered {
			if env.Triggered(id) {
				return false
			}
		}
	}

	if c.MinChoices != 0 && env.ChoicesMade < c.MinChoices {
		return false
	}

	if c.TimeInGame != 0 {
		elapsed := env.Now.Sub(env.SessionStart)
		if elapsed < time.Duration(c.TimeInGame)*time.Second {
			return false
		}
	}

	return true
}

// FactionRange constrains a faction reputation value. In content it is
// written either as a bare integer (exact match) or as a {min, max}
// mapping with either side optional.
type FactionRange struct {
	Exact *int
	Min   *int
	Max   *int
}

func (r *FactionRange) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var exact int
		if err := value.Decode(&exact); err != nil {
			return err
		}
		r.Exact = &exact
		return nil
	}
	var bounds struct {
		Min *int `yaml:"min"`
		Max *int `yaml:"max"`
	}
	if err := value.Decode(&bounds); err != nil {
		return err
	}
	r.Min = bounds.Min
	r.Max = bounds.Max
	return nil
}

func (r FactionRange) contains(v int) bool {
	if r.Exact != nil {
		return v == *r.Exact
	}
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}
