// Package engine is the narrative controller: it owns the player and
// session state, applies effects, orchestrates story, dialogue, event
// and location-action transitions, and detects endings.
package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kereth/troubles-sim/internal/content"
	"github.com/kereth/troubles-sim/internal/event"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/narrator"
	"github.com/kereth/troubles-sim/internal/rng"
	"github.com/kereth/troubles-sim/internal/stats"
	"github.com/kereth/troubles-sim/internal/story"
)

// State is the engine lifecycle phase.
type State int

const (
	StateInitializing State = iota
	StateMenu
	StatePlaying
	StatePaused
	StateEnded
)

// Tuning constants carried over unchanged; they are part of the game's
// balance, not derived values.
const (
	randomEventChance     = 0.3
	searchFindChance      = 0.2
	searchSuspicionChance = 0.4

	moveTensionCost   = 1
	searchTensionCost = 2
	restTensionRelief = 3
	restMoraleGain    = 2
)

// Ending node ids the terminal-condition check routes to.
const (
	endingExile  = "ending_exile"
	endingMartyr = "ending_martyr"
)

// Engine drives one game session.
type Engine struct {
	content *content.Content
	walker  *story.Walker
	events  *event.Engine
	acc     *stats.Accumulator
	narr    narrator.Narrator
	sink    Sink
	rand    rng.Source
	now     func() time.Time
	saveDir string

	state     State
	sessionID string
	player    *models.Player
	gameStats *models.GameStats
	dialogue  *activeDialogue
}

type activeDialogue struct {
	npcID string
	tree  models.DialogueTree
	node  string
}

// Options wires the engine's collaborators. Rand, Now and Narrator
// have working defaults; Sink must be provided.
type Options struct {
	Sink        Sink
	Rand        rng.Source
	Now         func() time.Time
	Narrator    narrator.Narrator
	Accumulator *stats.Accumulator
	SaveDir     string
}

// New builds an engine over loaded content.
func New(c *content.Content, opts Options) *Engine {
	if opts.Rand == nil {
		opts.Rand = rng.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Narrator == nil {
		opts.Narrator = &narrator.Local{Rand: opts.Rand}
	}
	if opts.Accumulator == nil {
		opts.Accumulator = stats.New("", opts.Now)
	}
	return &Engine{
		content: c,
		walker:  story.New(&c.Graph),
		events:  event.New(c.Events, opts.Rand, opts.Now),
		acc:     opts.Accumulator,
		narr:    opts.Narrator,
		sink:    opts.Sink,
		rand:    opts.Rand,
		now:     opts.Now,
		saveDir: opts.SaveDir,
		state:   StateInitializing,
	}
}

// State returns the lifecycle phase.
func (e *Engine) State() State { return e.state }

// Player returns the live player record, nil before a game starts.
func (e *Engine) Player() *models.Player { return e.player }

// GameStats returns the live session aggregate, nil before a game
// starts.
func (e *Engine) GameStats() *models.GameStats { return e.gameStats }

// Events exposes the event engine for derived queries.
func (e *Engine) Events() *event.Engine { return e.events }

// Accumulator exposes the analytics observer.
func (e *Engine) Accumulator() *stats.Accumulator { return e.acc }

// Location returns the player's current location record.
func (e *Engine) Location() (models.Location, bool) {
	if e.player == nil {
		return models.Location{}, false
	}
	loc, ok := e.content.Locations[e.player.Location]
	return loc, ok
}

// Start enters the menu and presents the introduction node.
func (e *Engine) Start() {
	e.state = StateMenu
	e.showStoryNode(e.content.Graph.StartNode)
}

// StartGame transitions menu → playing for the selected character.
func (e *Engine) StartGame(characterID string) {
	tmpl, ok := e.content.Characters[characterID]
	if !ok {
		log.Printf("engine: character %q not found", characterID)
		e.sink.Notify(NotifyError, "That character is not available.")
		return
	}

	e.acc.StartSession(characterID)

	e.sessionID = uuid.NewString()
	e.player = models.NewPlayer(characterID, tmpl)
	e.gameStats = models.NewGameStats()
	e.gameStats.StartTime = e.now()
	e.gameStats.VisitLocation(e.player.Location)
	e.acc.VisitLocation(e.player.Location)

	e.state = StatePlaying
	e.sink.StateChanged(e.player, e.gameStats)
	e.showHub()
	e.checkForRandomEvents()
}

// Pause suspends presentation without touching narrative state.
func (e *Engine) Pause() {
	if e.state == StatePlaying {
		e.state = StatePaused
	}
}

// Resume returns from pause.
func (e *Engine) Resume() {
	if e.state == StatePaused {
		e.state = StatePlaying
	}
}

// Restart discards the session and returns to the menu.
func (e *Engine) Restart() {
	e.player = nil
	e.gameStats = nil
	e.dialogue = nil
	e.sessionID = ""
	e.events.Reset()
	e.walker.Reset()
	e.Start()
}

// templateContext builds the walker context for the current player.
func (e *Engine) templateContext() story.Context {
	ctx := story.Context{Now: e.now}
	if e.player == nil || e.gameStats == nil {
		return ctx
	}
	ctx.PlayerName = e.player.Name
	if loc, ok := e.content.Locations[e.player.Location]; ok {
		ctx.Location = loc.Name
	}
	ctx.Env = event.Env(e.player.Location, e.player, e.gameStats, e.events)
	return ctx
}

// addJournal records an action. The objective text is authoritative;
// the narrator produces the subjective rendering.
func (e *Engine) addJournal(objective, entryType string) {
	if e.player == nil {
		return
	}
	entry := models.JournalEntry{
		ID:            uuid.NewString(),
		Text:          e.narr.Subjective(context.Background(), objective, e.player.Stats),
		ObjectiveText: objective,
		Type:          entryType,
		Timestamp:     e.now(),
		Location:      e.player.Location,
	}
	e.player.AddJournal(entry)
}

func (e *Engine) applyChoiceEffects(c models.Choice) {
	if c.Effects == nil || c.Effects.IsZero() {
		return
	}
	e.applyDelta(*c.Effects)
}

// checkTerminal evaluates the terminal conditions in their fixed
// order; the first match wins. It returns true when the game ended.
func (e *Engine) checkTerminal() bool {
	if e.state != StatePlaying || e.player == nil {
		return false
	}

	if e.player.Stats[models.StatTension] >= 100 {
		return e.endGameAt(endingExile)
	}
	if e.player.Stats[models.StatMorale] <= 0 {
		return e.endGameAt(endingMartyr)
	}
	if e.player.Stats[models.StatPtsd] >= 100 {
		return e.endGameAt(endingExile)
	}
	for _, faction := range sortedKeys(e.player.Reputation) {
		if e.player.Reputation[faction] <= -10 {
			return e.endGameAt(endingMartyr)
		}
	}
	return false
}

func (e *Engine) endGameAt(nodeID string) bool {
	node, ok := e.walker.Node(nodeID)
	if !ok {
		log.Printf("engine: ending node %q not found", nodeID)
		return false
	}
	e.endGame(node)
	return true
}

// endGame transitions playing → ended.
func (e *Engine) endGame(node *models.StoryNode) {
	e.state = StateEnded
	e.gameStats.EndTime = e.now()
	e.acc.EndSession(node.EndingType)

	e.sink.ShowEnding(&EndingView{
		Node:         node,
		Text:         e.walker.ResolveText(node.Text, e.templateContext()),
		Player:       e.player,
		Session:      e.acc.Session(),
		Achievements: e.acc.Unlocked(),
		TraumaScore:  e.events.TraumaScore(),
	})
}

// checkForRandomEvents runs the once-per-turn event gate. Skipped
// entirely while an event is active.
func (e *Engine) checkForRandomEvents() {
	if e.state != StatePlaying || e.events.Active() != nil {
		return
	}
	if e.rand.Float64() >= randomEventChance {
		return
	}

	available := e.events.Available(e.player.Location, e.player, e.gameStats)
	if len(available) == 0 {
		return
	}
	e.triggerEvent(available[e.rand.IntN(len(available))])
}

func (e *Engine) triggerEvent(def *models.EventDefinition) {
	active := e.events.Trigger(def, e.player, e.gameStats)

	e.gameStats.WitnessEvent(def.ID)
	e.acc.WitnessEvent(def.ID, def.Category)
	e.addJournal("Witnessed: "+def.Title, "event")

	e.sink.ShowEvent(e.eventView(active))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
