package condition

import (
	"log"

	"gopkg.in/yaml.v3"
)

// Requirement gates a single choice. In content it appears in two
// shapes: a bare item id (the player must hold it), or a typed
// comparison against a stat, reputation, inventory, flag, location or
// character value.
type Requirement struct {
	Item string

	Type     string `yaml:"type,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Value    any    `yaml:"value,omitempty"`
	Operator string `yaml:"operator,omitempty"`
}

func (r *Requirement) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&r.Item)
	}
	type plain Requirement
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Requirement(p)
	return nil
}

// Met reports whether the requirement holds for env. Unknown
// requirement types are treated as satisfied so unrecognized content
// never locks a choice; unknown operators are never satisfied.
func (r Requirement) Met(env Env) bool {
	if r.Item != "" {
		return env.hasItem(r.Item)
	}

	op := r.Operator
	if op == "" {
		op = "equals"
	}

	switch r.Type {
	case "stat":
		return Compare(env.Stats[r.Key], r.Value, op)
	case "reputation":
		return Compare(env.Reputation[r.Key], r.Value, op)
	case "inventory":
		want := true
		if b, ok := r.Value.(bool); ok {
			want = b
		}
		return env.hasItem(r.Key) == want
	case "flag":
		want := true
		if b, ok := r.Value.(bool); ok {
			want = b
		}
		return truthy(env.Flags[r.Key]) == want
	case "location":
		val, _ := r.Value.(string)
		return env.Location == val
	case "character":
		val, _ := r.Value.(string)
		return env.CharacterID == val
	default:
		log.Printf("condition: unknown requirement type %q, treating as satisfied", r.Type)
		return true
	}
}

// AllMet reports whether every requirement holds. An empty list is
// vacuously true.
func AllMet(reqs []Requirement, env Env) bool {
	for _, r := range reqs {
		if !r.Met(env) {
			return false
		}
	}
	return true
}

// Compare applies a named comparison operator to an actual integer
// value and an expected value from content. Unknown operators resolve
// to false.
func Compare(actual int, expected any, operator string) bool {
	want, ok := asInt(expected)
	if !ok {
		return false
	}
	switch operator {
	case "equals", "==":
		return actual == want
	case "not_equals", "!=":
		return actual != want
	case "greater_than", ">":
		return actual > want
	case "greater_or_equal", "greater_than_or_equal", ">=":
		return actual >= want
	case "less_than", "<":
		return actual < want
	case "less_or_equal", "less_than_or_equal", "<=":
		return actual <= want
	default:
		return false
	}
}

// KnownOperator reports whether operator is in the comparison table.
// The offline validator uses it to surface data-integrity warnings.
func KnownOperator(operator string) bool {
	switch operator {
	case "", "equals", "==", "not_equals", "!=",
		"greater_than", ">", "greater_or_equal", "greater_than_or_equal", ">=",
		"less_than", "<", "less_or_equal", "less_than_or_equal", "<=":
		return true
	}
	return false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case string:
		return x != ""
	}
	return true
}
