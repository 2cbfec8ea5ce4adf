package effect

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func newTarget() (Target, *[]string) {
	inv := []string{"cigarettes"}
	t := Target{
		Stats:      map[string]int{"tension": 50, "morale": 50, "ptsd": 0},
		Reputation: map[string]int{"british_army": 0, "civilians": 2},
		Relations:  map[string]int{},
		Inventory:  &inv,
		Flags:      map[string]any{},
	}
	return t, &inv
}

func TestApplyClampsStats(t *testing.T) {
	target, _ := newTarget()

	Apply(Delta{Ops: []Op{StatDelta{Stat: "tension", Delta: 200}}}, target)
	if target.Stats["tension"] != StatMax {
		t.Errorf("Expected tension clamped to %d, got %d", StatMax, target.Stats["tension"])
	}

	Apply(Delta{Ops: []Op{StatDelta{Stat: "morale", Delta: -200}}}, target)
	if target.Stats["morale"] != StatMin {
		t.Errorf("Expected morale clamped to %d, got %d", StatMin, target.Stats["morale"])
	}
}

func TestApplyClampsReputation(t *testing.T) {
	target, _ := newTarget()

	Apply(Delta{Ops: []Op{FactionDelta{Faction: "british_army", Delta: -25}}}, target)
	if target.Reputation["british_army"] != RelationMin {
		t.Errorf("Expected reputation clamped to %d, got %d", RelationMin, target.Reputation["british_army"])
	}

	Apply(Delta{Ops: []Op{FactionDelta{Faction: "civilians", Delta: 25}}}, target)
	if target.Reputation["civilians"] != RelationMax {
		t.Errorf("Expected reputation clamped to %d, got %d", RelationMax, target.Reputation["civilians"])
	}
}

func TestApplyIgnoresUnknownFaction(t *testing.T) {
	target, _ := newTarget()

	Apply(Delta{Ops: []Op{FactionDelta{Faction: "uvf", Delta: 3}}}, target)
	if _, ok := target.Reputation["uvf"]; ok {
		t.Error("Expected unknown faction to stay absent")
	}
}

func TestApplyCreatesRelationship(t *testing.T) {
	target, _ := newTarget()

	Apply(Delta{Ops: []Op{RelationshipDelta{NPC: "mrs_kelly", Delta: 2}}}, target)
	if target.Relations["mrs_kelly"] != 2 {
		t.Errorf("Expected mrs_kelly relationship 2, got %d", target.Relations["mrs_kelly"])
	}
}

func TestApplyInventory(t *testing.T) {
	target, inv := newTarget()

	// Adding an item twice keeps a single copy.
	add := Delta{Ops: []Op{InventoryAdd{Items: []string{"press_card"}}}}
	Apply(add, target)
	Apply(add, target)
	count := 0
	for _, it := range *inv {
		if it == "press_card" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected 1 press_card, got %d", count)
	}

	Apply(Delta{Ops: []Op{InventoryRemove{Items: []string{"cigarettes"}}}}, target)
	for _, it := range *inv {
		if it == "cigarettes" {
			t.Error("Expected cigarettes removed")
		}
	}
}

func TestApplyFlags(t *testing.T) {
	target, _ := newTarget()

	Apply(Delta{Ops: []Op{FlagSet{Flags: map[string]any{"informed": true}}}}, target)
	if target.Flags["informed"] != true {
		t.Errorf("Expected informed flag set, got %v", target.Flags["informed"])
	}
}

func TestDeltaUnmarshalYAML(t *testing.T) {
	src := `
tension: 5
morale: -2
faction_reputation:
  british_army: -1
npc_relationships:
  mrs_kelly: 1
add_items:
  - press_card
set_flags:
  approached: true
unknown_key: 42
`
	var d Delta
	if err := yaml.Unmarshal([]byte(src), &d); err != nil {
		t.Fatalf("Failed to unmarshal delta: %v", err)
	}

	// unknown_key is dropped; everything else becomes one op each.
	if len(d.Ops) != 6 {
		t.Fatalf("Expected 6 ops, got %d: %#v", len(d.Ops), d.Ops)
	}

	var sawTension, sawFaction bool
	for _, op := range d.Ops {
		switch op := op.(type) {
		case StatDelta:
			if op.Stat == "tension" {
				sawTension = true
				if op.Delta != 5 {
					t.Errorf("Expected tension delta 5, got %d", op.Delta)
				}
			}
		case FactionDelta:
			sawFaction = true
			if op.Faction != "british_army" || op.Delta != -1 {
				t.Errorf("Unexpected faction op %+v", op)
			}
		}
	}
	if !sawTension || !sawFaction {
		t.Error("Expected both stat and faction ops")
	}
}

func TestStatsConstructor(t *testing.T) {
	d := Stats(map[string]int{"tension": -3, "morale": 2})
	if len(d.Ops) != 2 {
		t.Fatalf("Expected 2 ops, got %d", len(d.Ops))
	}
	if d.IsZero() {
		t.Error("Expected non-zero delta")
	}
	if !(Delta{}).IsZero() {
		t.Error("Expected empty delta to be zero")
	}
}
