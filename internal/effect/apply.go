package effect

// Target is the mutable slice of player state a delta may touch. The
// models package builds one from a player; keeping the view here lets
// both the narrative controller and the event engine share this exact
// application routine.
type Target struct {
	Stats      map[string]int
	Reputation map[string]int
	Relations  map[string]int
	Inventory  *[]string
	Flags      map[string]any
}

// Apply mutates t according to d. It never fails: deltas against
// unknown factions are dropped, and every numeric result is clamped to
// its declared range.
func Apply(d Delta, t Target) {
	for _, op := range d.Ops {
		switch op := op.(type) {
		case StatDelta:
			if _, ok := t.Stats[op.Stat]; !ok {
				continue
			}
			t.Stats[op.Stat] = clamp(t.Stats[op.Stat]+op.Delta, StatMin, StatMax)
		case FactionDelta:
			if _, ok := t.Reputation[op.Faction]; !ok {
				continue
			}
			t.Reputation[op.Faction] = clamp(t.Reputation[op.Faction]+op.Delta, RelationMin, RelationMax)
		case RelationshipDelta:
			// Relationships are created lazily on first effect.
			t.Relations[op.NPC] = clamp(t.Relations[op.NPC]+op.Delta, RelationMin, RelationMax)
		case InventoryAdd:
			for _, item := range op.Items {
				if !contains(*t.Inventory, item) {
					*t.Inventory = append(*t.Inventory, item)
				}
			}
		case InventoryRemove:
			for _, item := range op.Items {
				*t.Inventory = remove(*t.Inventory, item)
			}
		case FlagSet:
			for k, v := range op.Flags {
				t.Flags[k] = v
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func contains(items []string, id string) bool {
	for _, it := range items {
		if it == id {
			return true
		}
	}
	return false
}

func remove(items []string, id string) []string {
	out := items[:0]
	for _, it := range items {
		if it != id {
			out = append(out, it)
		}
	}
	return out
}
