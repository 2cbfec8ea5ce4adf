// Package models defines the player/session state the engine mutates
// and the immutable content records it walks.
package models

import (
	"time"

	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/effect"
)

// Stat meter names. Every meter is clamped to [0, 100].
const (
	StatTension = "tension"
	StatMorale  = "morale"
	StatPtsd    = "ptsd"
)

// Player is the mutable per-session character record. It is owned
// exclusively by the narrative controller; every change goes through
// the effect-application routine.
type Player struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Background string `yaml:"background"`

	Location   string         `yaml:"location"`
	Stats      map[string]int `yaml:"stats"`
	Reputation map[string]int `yaml:"faction_reputation"`
	Relations  map[string]int `yaml:"npc_relationships"`
	Inventory  []string       `yaml:"inventory"`
	Flags      map[string]any `yaml:"flags"`
	Journal    []JournalEntry `yaml:"journal"`
}

// NewPlayer deep-copies a character template into a fresh player.
func NewPlayer(id string, c Character) *Player {
	p := &Player{
		ID:         id,
		Name:       c.Name,
		Background: c.Background,
		Location:   c.StartLocation,
		Stats:      make(map[string]int, len(c.StartingStats)),
		Reputation: make(map[string]int, len(c.FactionReputation)),
		Relations:  make(map[string]int),
		Inventory:  append([]string(nil), c.StartingInventory...),
		Flags:      make(map[string]any),
	}
	for k, v := range c.StartingStats {
		p.Stats[k] = v
	}
	for k, v := range c.FactionReputation {
		p.Reputation[k] = v
	}
	return p
}

// HasItem reports inventory membership.
func (p *Player) HasItem(id string) bool {
	for _, it := range p.Inventory {
		if it == id {
			return true
		}
	}
	return false
}

// Apply runs the shared effect-application routine against this
// player.
func (p *Player) Apply(d effect.Delta) {
	effect.Apply(d, effect.Target{
		Stats:      p.Stats,
		Reputation: p.Reputation,
		Relations:  p.Relations,
		Inventory:  &p.Inventory,
		Flags:      p.Flags,
	})
}

// AddJournal appends an entry. The journal is append-only; entries are
// never mutated after creation.
func (p *Player) AddJournal(e JournalEntry) {
	p.Journal = append(p.Journal, e)
}

// JournalEntry is one recorded action. Text is the subjective
// rendering; ObjectiveText is what actually happened.
type JournalEntry struct {
	ID            string    `yaml:"id"`
	Text          string    `yaml:"text"`
	ObjectiveText string    `yaml:"objective_text"`
	Type          string    `yaml:"type"`
	Timestamp     time.Time `yaml:"timestamp"`
	Location      string    `yaml:"location"`
}

// GameStats is the per-session aggregate record.
type GameStats struct {
	ChoicesMade      int
	LocationsVisited map[string]struct{}
	NPCsMet          map[string]struct{}
	EventsWitnessed  map[string]struct{}
	StartTime        time.Time
	EndTime          time.Time
}

// NewGameStats returns an empty aggregate with initialized sets.
func NewGameStats() *GameStats {
	return &GameStats{
		LocationsVisited: make(map[string]struct{}),
		NPCsMet:          make(map[string]struct{}),
		EventsWitnessed:  make(map[string]struct{}),
	}
}

func (g *GameStats) VisitLocation(id string) { g.LocationsVisited[id] = struct{}{} }
func (g *GameStats) MeetNPC(id string)       { g.NPCsMet[id] = struct{}{} }
func (g *GameStats) WitnessEvent(id string)  { g.EventsWitnessed[id] = struct{}{} }

// NodeType discriminates story node behavior.
type NodeType string

const (
	NodeStory              NodeType = "story"
	NodeCharacterSelection NodeType = "character_selection"
	NodeLocationHub        NodeType = "location_hub"
	NodeEnding             NodeType = "ending"
)

// StoryGraph is the full node catalog plus its entry point.
type StoryGraph struct {
	StartNode string                `yaml:"start_node"`
	Nodes     map[string]*StoryNode `yaml:"nodes"`
}

// StoryNode is an immutable unit of narrative content. Text may embed
// {variable} placeholders resolved at view time.
type StoryNode struct {
	ID         string   `yaml:"id"`
	Type       NodeType `yaml:"type"`
	Title      string   `yaml:"title,omitempty"`
	Text       string   `yaml:"text"`
	EndingType string   `yaml:"ending_type,omitempty"`
	Choices    []Choice `yaml:"choices,omitempty"`
}

// Choice is a selectable option on a story node, dialogue node or
// event. Exactly one of NextNode, Action(+Target) or Dialogue decides
// where it leads; dialogue-internal choices use Next and End instead.
type Choice struct {
	Text        string `yaml:"text"`
	NextNode    string `yaml:"next_node,omitempty"`
	Action      string `yaml:"action,omitempty"`
	Target      string `yaml:"target,omitempty"`
	Dialogue    string `yaml:"dialogue,omitempty"`
	CharacterID string `yaml:"character_id,omitempty"`

	// Dialogue-tree navigation.
	Next string `yaml:"next,omitempty"`
	End  bool   `yaml:"end,omitempty"`

	// Consequence is the follow-up text shown after an event choice.
	Consequence string `yaml:"consequence,omitempty"`

	Effects      *effect.Delta           `yaml:"effects,omitempty"`
	Requirements []condition.Requirement `yaml:"requirements,omitempty"`
}

// Location is a node of the world map.
type Location struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	Connections        []string `yaml:"connections"`
	NPCs               []string `yaml:"npcs,omitempty"`
	Searchable         bool     `yaml:"searchable,omitempty"`
	AmbientSound       string   `yaml:"ambient_sound,omitempty"`
	BackgroundImage    string   `yaml:"background_image,omitempty"`
	EnvironmentDetails []string `yaml:"environment_details,omitempty"`
}

// Connected reports whether id is directly reachable from this
// location.
func (l Location) Connected(id string) bool {
	for _, c := range l.Connections {
		if c == id {
			return true
		}
	}
	return false
}

// Character is a playable character template.
type Character struct {
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	Background        string         `yaml:"background"`
	StartLocation     string         `yaml:"start_location"`
	StartingStats     map[string]int `yaml:"starting_stats"`
	StartingInventory []string       `yaml:"starting_inventory"`
	FactionReputation map[string]int `yaml:"faction_reputation"`
}

// Item is a catalog entry usable from the inventory.
type Item struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Usable      bool          `yaml:"usable,omitempty"`
	Consumable  bool          `yaml:"consumable,omitempty"`
	Effects     *effect.Delta `yaml:"effects,omitempty"`
}

// DialogueTree is the conversation graph for one NPC, entered at the
// "initial" node.
type DialogueTree struct {
	Name  string                  `yaml:"name"`
	Nodes map[string]DialogueNode `yaml:"nodes"`
}

// DialogueInitialNode is where every conversation starts.
const DialogueInitialNode = "initial"

type DialogueNode struct {
	Text    string   `yaml:"text"`
	Choices []Choice `yaml:"choices,omitempty"`
}

// Event categories.
const (
	CategoryViolence  = "violence"
	CategoryMoral     = "moral"
	CategoryEncounter = "encounter"
)

// EventCatalog is the three-way split event source.
type EventCatalog struct {
	ViolentEvents    []*EventDefinition `yaml:"violent_events,omitempty"`
	MoralDilemmas    []*EventDefinition `yaml:"moral_dilemmas,omitempty"`
	RandomEncounters []*EventDefinition `yaml:"random_encounters,omitempty"`
}

// All returns every definition across categories.
func (c EventCatalog) All() []*EventDefinition {
	out := make([]*EventDefinition, 0, len(c.ViolentEvents)+len(c.MoralDilemmas)+len(c.RandomEncounters))
	out = append(out, c.ViolentEvents...)
	out = append(out, c.MoralDilemmas...)
	out = append(out, c.RandomEncounters...)
	return out
}

// EventDefinition is one immutable event record. Category is stamped
// by the content loader from the catalog section it was read from.
type EventDefinition struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"-"`

	Location  string   `yaml:"location,omitempty"`
	Locations []string `yaml:"locations,omitempty"`

	Repeatable    bool    `yaml:"repeatable,omitempty"`
	TriggerChance float64 `yaml:"trigger_chance,omitempty"`

	TriggerConditions *condition.Conditions `yaml:"trigger_conditions,omitempty"`

	TraumaValue  int    `yaml:"trauma_value,omitempty"`
	ViolenceType string `yaml:"violence_type,omitempty"`

	Choices []Choice `yaml:"choices"`
}

// EventFiring is one append-only history record of an event trigger,
// including a snapshot of the player's meters at that moment.
type EventFiring struct {
	EventID     string         `yaml:"event_id"`
	Timestamp   time.Time      `yaml:"timestamp"`
	Location    string         `yaml:"location"`
	PlayerStats map[string]int `yaml:"player_stats"`
	Category    string         `yaml:"category"`
}

// StoryProgress is the walker's serializable position.
type StoryProgress struct {
	Current string         `yaml:"current"`
	History []string       `yaml:"history"`
	Flags   map[string]any `yaml:"flags"`
}

// EventState is the event engine's serializable session state.
type EventState struct {
	Triggered []string      `yaml:"triggered"`
	History   []EventFiring `yaml:"history"`
	ActiveID  string        `yaml:"active_id,omitempty"`
}
