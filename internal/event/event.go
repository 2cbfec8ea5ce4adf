// Package event holds the dynamically-triggered event catalog and its
// eligibility, trigger and resolution logic.
package event

import (
	"log"
	"sort"
	"time"

	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/effect"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/rng"
)

// DefaultTriggerChance gates encounter-category events that declare no
// chance of their own.
const DefaultTriggerChance = 0.1

// Default trauma weights by category, used when an event declares no
// trauma value.
const (
	traumaViolence = 10
	traumaMoral    = 5
)

// Active is the single event currently awaiting a player choice.
type Active struct {
	Def         *models.EventDefinition
	TriggeredAt time.Time
	Location    string
}

// Result records the resolution of an active event.
type Result struct {
	EventID     string
	Choice      string
	Consequence string
	Effects     *effect.Delta
	CompletedAt time.Time
}

// Engine owns the event catalog, the session-scoped triggered set, the
// optional active event and the append-only firing history.
type Engine struct {
	catalog   models.EventCatalog
	triggered map[string]struct{}
	active    *Active
	history   []models.EventFiring

	rand rng.Source
	now  func() time.Time
}

// New returns an engine over catalog. now may be nil, defaulting to
// time.Now.
func New(catalog models.EventCatalog, src rng.Source, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		catalog:   catalog,
		triggered: make(map[string]struct{}),
		rand:      src,
		now:       now,
	}
}

// Triggered reports whether an event id has fired this session.
func (e *Engine) Triggered(id string) bool {
	_, ok := e.triggered[id]
	return ok
}

// Active returns the event currently awaiting a choice, if any.
func (e *Engine) Active() *Active { return e.active }

// History returns the firing log.
func (e *Engine) History() []models.EventFiring { return e.history }

// Available returns every catalog event admissible at locationID for
// the given player and session aggregate. Encounter-category events
// additionally pass a probabilistic gate with a fresh draw per
// candidate per call, so calling this twice is not idempotent.
func (e *Engine) Available(locationID string, p *models.Player, gs *models.GameStats) []*models.EventDefinition {
	env := Env(locationID, p, gs, e)

	var out []*models.EventDefinition
	for _, def := range e.catalog.ViolentEvents {
		if e.eligible(def, locationID, env) {
			out = append(out, def)
		}
	}
	for _, def := range e.catalog.MoralDilemmas {
		if e.eligible(def, locationID, env) {
			out = append(out, def)
		}
	}
	for _, def := range e.catalog.RandomEncounters {
		if !e.eligible(def, locationID, env) {
			continue
		}
		chance := def.TriggerChance
		if chance == 0 {
			chance = DefaultTriggerChance
		}
		if e.rand.Float64() < chance {
			out = append(out, def)
		}
	}
	return out
}

// eligible applies the gating rules in order: triggered-and-not-
// repeatable, single-location gate, multi-location gate, trigger
// conditions. No conditions means unconditionally eligible.
func (e *Engine) eligible(def *models.EventDefinition, locationID string, env condition.Env) bool {
	if e.Triggered(def.ID) && !def.Repeatable {
		return false
	}
	if def.Location != "" && def.Location != locationID {
		return false
	}
	if len(def.Locations) > 0 {
		found := false
		for _, l := range def.Locations {
			if l == locationID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return def.TriggerConditions.Met(env)
}

// Trigger marks the event as triggered for the rest of the session
// (repeatable or not), makes it active and appends a firing record
// with a snapshot of the player's meters. The caller must not trigger
// while another event is active.
func (e *Engine) Trigger(def *models.EventDefinition, p *models.Player, gs *models.GameStats) *Active {
	if e.active != nil {
		log.Printf("event: triggering %q while %q is still active", def.ID, e.active.Def.ID)
	}

	e.triggered[def.ID] = struct{}{}

	now := e.now()
	e.active = &Active{
		Def:         def,
		TriggeredAt: now,
		Location:    p.Location,
	}

	stats := make(map[string]int, len(p.Stats))
	for k, v := range p.Stats {
		stats[k] = v
	}
	e.history = append(e.history, models.EventFiring{
		EventID:     def.ID,
		Timestamp:   now,
		Location:    p.Location,
		PlayerStats: stats,
		Category:    def.Category,
	})

	return e.active
}

// ResolveChoice applies an event choice to the player, clears the
// active event and returns the result record. With no active event it
// logs and returns ok=false.
func (e *Engine) ResolveChoice(choice models.Choice, p *models.Player) (*Result, bool) {
	if e.active == nil {
		log.Printf("event: no active event to resolve choice %q", choice.Text)
		return nil, false
	}

	result := &Result{
		EventID:     e.active.Def.ID,
		Choice:      choice.Text,
		Consequence: choice.Consequence,
		Effects:     choice.Effects,
		CompletedAt: e.now(),
	}

	if choice.Effects != nil {
		p.Apply(*choice.Effects)
	}

	e.active = nil
	return result, true
}

// Find returns the catalog definition for an event id.
func (e *Engine) Find(id string) (*models.EventDefinition, bool) {
	for _, def := range e.catalog.All() {
		if def.ID == id {
			return def, true
		}
	}
	return nil, false
}

// ForceTrigger fires an event by id regardless of eligibility. Debug
// and test hook.
func (e *Engine) ForceTrigger(id string, p *models.Player, gs *models.GameStats) (*Active, bool) {
	def, ok := e.Find(id)
	if !ok {
		log.Printf("event: force-trigger of unknown event %q", id)
		return nil, false
	}
	return e.Trigger(def, p, gs), true
}

// Reset clears the session state for a new game.
func (e *Engine) Reset() {
	e.triggered = make(map[string]struct{})
	e.active = nil
	e.history = nil
}

// State exports the engine's session state for a snapshot.
func (e *Engine) State() models.EventState {
	triggered := make([]string, 0, len(e.triggered))
	for id := range e.triggered {
		triggered = append(triggered, id)
	}
	sort.Strings(triggered)

	s := models.EventState{
		Triggered: triggered,
		History:   append([]models.EventFiring(nil), e.history...),
	}
	if e.active != nil {
		s.ActiveID = e.active.Def.ID
	}
	return s
}

// Restore replaces the engine's session state from a snapshot. An
// active id that no longer resolves to a catalog event is dropped with
// a log line.
func (e *Engine) Restore(s models.EventState) {
	e.Reset()
	for _, id := range s.Triggered {
		e.triggered[id] = struct{}{}
	}
	e.history = append([]models.EventFiring(nil), s.History...)
	if s.ActiveID != "" {
		def, ok := e.Find(s.ActiveID)
		if !ok {
			log.Printf("event: saved active event %q not in catalog, dropping", s.ActiveID)
			return
		}
		e.active = &Active{Def: def, TriggeredAt: e.now()}
	}
}

// Env builds the condition environment for a player and session
// aggregate, with the engine's triggered set wired in. eng may be nil.
func Env(locationID string, p *models.Player, gs *models.GameStats, eng *Engine) condition.Env {
	env := condition.Env{
		CharacterID:  p.ID,
		Location:     locationID,
		Stats:        p.Stats,
		Inventory:    p.Inventory,
		Reputation:   p.Reputation,
		Flags:        p.Flags,
		ChoicesMade:  gs.ChoicesMade,
		SessionStart: gs.StartTime,
	}
	if eng != nil {
		env.Now = eng.now()
		env.Triggered = eng.Triggered
	} else {
		env.Now = time.Now()
	}
	return env
}
