// Package effect holds the state-delta descriptor attached to choices
// and items, and the single shared routine that applies one to player
// state.
//
// A Delta is a list of typed operations rather than a loose key/value
// bag: each YAML key is parsed once into its variant at load time, and
// application dispatches over the variants exhaustively. Keys that do
// not match any known operation are dropped during parsing; they are
// unrecognized data, not runtime errors.
package effect

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Clamp ranges. Stats are percent-like meters; reputation and
// relationship scores are symmetric around zero.
const (
	StatMin = 0
	StatMax = 100

	RelationMin = -10
	RelationMax = 10
)

// Op is one typed state operation.
type Op interface {
	isOp()
}

// StatDelta adjusts a named stat meter, clamped to [0, 100].
type StatDelta struct {
	Stat  string
	Delta int
}

// FactionDelta adjusts reputation with a faction the player already
// knows, clamped to [-10, 10]. Unknown factions are ignored.
type FactionDelta struct {
	Faction string
	Delta   int
}

// RelationshipDelta adjusts an NPC relationship, creating it at zero
// when absent, clamped to [-10, 10].
type RelationshipDelta struct {
	NPC   string
	Delta int
}

// InventoryAdd appends items not already held.
type InventoryAdd struct {
	Items []string
}

// InventoryRemove removes all occurrences of the listed items.
type InventoryRemove struct {
	Items []string
}

// FlagSet overwrites story-memory flags unconditionally.
type FlagSet struct {
	Flags map[string]any
}

func (StatDelta) isOp()         {}
func (FactionDelta) isOp()      {}
func (RelationshipDelta) isOp() {}
func (InventoryAdd) isOp()      {}
func (InventoryRemove) isOp()   {}
func (FlagSet) isOp()           {}

// Delta is a set of simultaneously-applied operations. Order across
// distinct keys carries no meaning.
type Delta struct {
	Ops []Op
}

// IsZero reports whether the delta does nothing.
func (d Delta) IsZero() bool { return len(d.Ops) == 0 }

// statNames are the meters a bare numeric effect key may address.
var statNames = map[string]bool{
	"tension": true,
	"morale":  true,
	"ptsd":    true,
}

func (d *Delta) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}

	// Iterate the document's key order so parsing is stable, even
	// though application order is not significant.
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		node := raw[key]
		switch {
		case statNames[key]:
			var n int
			if err := node.Decode(&n); err != nil {
				return err
			}
			d.Ops = append(d.Ops, StatDelta{Stat: key, Delta: n})
		case key == "faction_reputation":
			var m map[string]int
			if err := node.Decode(&m); err != nil {
				return err
			}
			for _, faction := range sortedKeys(m) {
				d.Ops = append(d.Ops, FactionDelta{Faction: faction, Delta: m[faction]})
			}
		case key == "npc_relationships":
			var m map[string]int
			if err := node.Decode(&m); err != nil {
				return err
			}
			for _, npc := range sortedKeys(m) {
				d.Ops = append(d.Ops, RelationshipDelta{NPC: npc, Delta: m[npc]})
			}
		case key == "add_items":
			var items []string
			if err := node.Decode(&items); err != nil {
				return err
			}
			d.Ops = append(d.Ops, InventoryAdd{Items: items})
		case key == "remove_items":
			var items []string
			if err := node.Decode(&items); err != nil {
				return err
			}
			d.Ops = append(d.Ops, InventoryRemove{Items: items})
		case key == "set_flags":
			var flags map[string]any
			if err := node.Decode(&flags); err != nil {
				return err
			}
			d.Ops = append(d.Ops, FlagSet{Flags: flags})
		default:
			// Unrecognized key: dropped, by the permissive-runtime
			// policy. The validator reports these offline.
		}
	}
	return nil
}

func (d Delta) MarshalYAML() (any, error) {
	out := map[string]any{}
	stats := map[string]int{}
	factions := map[string]int{}
	npcs := map[string]int{}
	for _, op := range d.Ops {
		switch op := op.(type) {
		case StatDelta:
			stats[op.Stat] += op.Delta
		case FactionDelta:
			factions[op.Faction] += op.Delta
		case RelationshipDelta:
			npcs[op.NPC] += op.Delta
		case InventoryAdd:
			out["add_items"] = op.Items
		case InventoryRemove:
			out["remove_items"] = op.Items
		case FlagSet:
			out["set_flags"] = op.Flags
		}
	}
	for k, v := range stats {
		out[k] = v
	}
	if len(factions) > 0 {
		out["faction_reputation"] = factions
	}
	if len(npcs) > 0 {
		out["npc_relationships"] = npcs
	}
	return out, nil
}

// Stats constructs a delta of bare stat adjustments. The engine uses
// it for the fixed action effects (move, search, rest).
func Stats(deltas map[string]int) Delta {
	var d Delta
	for _, stat := range sortedKeys(deltas) {
		d.Ops = append(d.Ops, StatDelta{Stat: stat, Delta: deltas[stat]})
	}
	return d
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
