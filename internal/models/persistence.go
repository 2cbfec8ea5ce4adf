package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotVersion tags the save schema.
const SnapshotVersion = "1.0.0"

// Snapshot is the serializable whole-session state handed to the
// persistence collaborator. Sets are stored list-like; inventory order
// is preserved.
type Snapshot struct {
	Version string    `yaml:"version"`
	SavedAt time.Time `yaml:"saved_at"`

	Player *Player       `yaml:"player"`
	Stats  SnapshotStats `yaml:"stats"`
	Story  StoryProgress `yaml:"story"`
	Events EventState    `yaml:"events"`
}

// SnapshotStats is GameStats with its sets flattened to sorted lists.
type SnapshotStats struct {
	ChoicesMade      int       `yaml:"choices_made"`
	LocationsVisited []string  `yaml:"locations_visited"`
	NPCsMet          []string  `yaml:"npcs_met"`
	EventsWitnessed  []string  `yaml:"events_witnessed"`
	StartTime        time.Time `yaml:"start_time"`
	EndTime          time.Time `yaml:"end_time,omitempty"`
}

// FlattenStats converts the runtime aggregate into its list-like form.
func FlattenStats(g *GameStats) SnapshotStats {
	return SnapshotStats{
		ChoicesMade:      g.ChoicesMade,
		LocationsVisited: sortedSet(g.LocationsVisited),
		NPCsMet:          sortedSet(g.NPCsMet),
		EventsWitnessed:  sortedSet(g.EventsWitnessed),
		StartTime:        g.StartTime,
		EndTime:          g.EndTime,
	}
}

// Restore converts the list-like form back into the runtime aggregate.
func (s SnapshotStats) Restore() *GameStats {
	g := NewGameStats()
	g.ChoicesMade = s.ChoicesMade
	g.StartTime = s.StartTime
	g.EndTime = s.EndTime
	for _, id := range s.LocationsVisited {
		g.VisitLocation(id)
	}
	for _, id := range s.NPCsMet {
		g.MeetNPC(id)
	}
	for _, id := range s.EventsWitnessed {
		g.WitnessEvent(id)
	}
	return g
}

// Validate reports whether the snapshot carries the minimum usable
// state: a player record with id, location and stats. Anything less is
// treated as "no usable save" by the caller, never as a fatal error.
func (s *Snapshot) Validate() error {
	if s.Player == nil {
		return fmt.Errorf("snapshot has no player record")
	}
	if s.Player.ID == "" {
		return fmt.Errorf("snapshot player has no id")
	}
	if s.Player.Location == "" {
		return fmt.Errorf("snapshot player has no location")
	}
	if len(s.Player.Stats) == 0 {
		return fmt.Errorf("snapshot player has no stats")
	}
	return nil
}

// Save file layout, one directory per named save.
const (
	metaFile   = "meta.yaml"
	playerFile = "player.yaml"
	statsFile  = "stats.yaml"
	storyFile  = "story.yaml"
	eventsFile = "events.yaml"
)

type snapshotMeta struct {
	Version string    `yaml:"version"`
	SavedAt time.Time `yaml:"saved_at"`
}

// SaveSnapshot writes the snapshot under dir/name.
func SaveSnapshot(dir, name string, s *Snapshot) error {
	target := filepath.Join(dir, name)
	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}

	files := map[string]any{
		metaFile:   snapshotMeta{Version: s.Version, SavedAt: s.SavedAt},
		playerFile: s.Player,
		statsFile:  s.Stats,
		storyFile:  s.Story,
		eventsFile: s.Events,
	}
	for file, v := range files {
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", file, err)
		}
		if err := os.WriteFile(filepath.Join(target, file), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads and validates the snapshot under dir/name.
func LoadSnapshot(dir, name string) (*Snapshot, error) {
	target := filepath.Join(dir, name)

	var meta snapshotMeta
	if err := readYAML(filepath.Join(target, metaFile), &meta); err != nil {
		return nil, err
	}

	s := &Snapshot{Version: meta.Version, SavedAt: meta.SavedAt}
	if err := readYAML(filepath.Join(target, playerFile), &s.Player); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(target, statsFile), &s.Stats); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(target, storyFile), &s.Story); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(target, eventsFile), &s.Events); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Saves written before maps existed restore with usable zero
	// values.
	if s.Player.Reputation == nil {
		s.Player.Reputation = make(map[string]int)
	}
	if s.Player.Relations == nil {
		s.Player.Relations = make(map[string]int)
	}
	if s.Player.Flags == nil {
		s.Player.Flags = make(map[string]any)
	}
	return s, nil
}

// SnapshotInfo is the preview metadata for one saved game.
type SnapshotInfo struct {
	Name          string
	CharacterName string
	Location      string
	ChoicesMade   int
	SavedAt       time.Time
}

// ListSnapshots returns previews for every usable save under dir.
func ListSnapshots(dir string) ([]SnapshotInfo, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var infos []SnapshotInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := LoadSnapshot(dir, entry.Name())
		if err != nil {
			continue
		}
		infos = append(infos, SnapshotInfo{
			Name:          entry.Name(),
			CharacterName: s.Player.Name,
			Location:      s.Player.Location,
			ChoicesMade:   s.Stats.ChoicesMade,
			SavedAt:       s.SavedAt,
		})
	}
	return infos, nil
}

// DeleteSnapshot removes the named save.
func DeleteSnapshot(dir, name string) error {
	return os.RemoveAll(filepath.Join(dir, name))
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
