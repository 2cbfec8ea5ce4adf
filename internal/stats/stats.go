// Package stats derives session and lifetime analytics plus
// achievement unlocks from the engine's state transitions. It is a
// read-only observer: the engine forwards notifications here and never
// depends on this package's output for correctness.
package stats

import (
	"strings"
	"time"

	"github.com/kereth/troubles-sim/internal/effect"
	"github.com/kereth/troubles-sim/internal/models"
)

// Extreme is a best/worst relationship record.
type Extreme struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
}

// Session is the per-session analytics aggregate.
type Session struct {
	CharacterID string
	StartTime   time.Time
	EndTime     time.Time
	PlayTime    time.Duration

	ChoicesMade      int
	LocationsVisited map[string]struct{}
	NPCsMet          map[string]struct{}
	EventsWitnessed  map[string]struct{}
	ItemsFound       map[string]struct{}
	ItemsUsed        map[string]struct{}

	MaxTension int
	MaxMorale  int
	MaxPtsd    int

	BestFaction  Extreme
	WorstFaction Extreme
	BestNPC      Extreme
	WorstNPC     Extreme

	ViolentEventsWitnessed int
	MoralChoicesMade       int
	HeroicActions          int
	SelfishActions         int

	EndingReached string
}

func newSession() Session {
	return Session{
		LocationsVisited: make(map[string]struct{}),
		NPCsMet:          make(map[string]struct{}),
		EventsWitnessed:  make(map[string]struct{}),
		ItemsFound:       make(map[string]struct{}),
		ItemsUsed:        make(map[string]struct{}),
	}
}

// Accumulator tracks one session at a time and folds finished sessions
// into the lifetime record.
type Accumulator struct {
	session  Session
	lifetime Lifetime
	path     string

	// unlocked collects achievements earned when the session ended.
	unlocked []string

	now func() time.Time
}

// New returns an accumulator persisting lifetime stats at path. An
// unreadable lifetime file starts a fresh record; analytics loss is
// never an error the game surfaces. now may be nil.
func New(path string, now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{
		session:  newSession(),
		lifetime: loadLifetime(path),
		path:     path,
		now:      now,
	}
}

// Session returns the current session aggregate.
func (a *Accumulator) Session() Session { return a.session }

// Lifetime returns the cross-session record.
func (a *Accumulator) Lifetime() Lifetime { return a.lifetime }

// Unlocked returns the achievements earned by the last finished
// session.
func (a *Accumulator) Unlocked() []string { return a.unlocked }

// StartSession begins tracking a new run.
func (a *Accumulator) StartSession(characterID string) {
	a.session = newSession()
	a.session.CharacterID = characterID
	a.session.StartTime = a.now()
	a.unlocked = nil

	if a.lifetime.FirstPlay.IsZero() {
		a.lifetime.FirstPlay = a.now()
	}
	a.lifetime.LastPlay = a.now()
	a.lifetime.addCharacter(characterID)
}

// EndSession finalizes the run, folds it into the lifetime record,
// evaluates achievements and saves the lifetime file.
func (a *Accumulator) EndSession(endingType string) {
	a.session.EndTime = a.now()
	a.session.EndingReached = endingType
	if !a.session.StartTime.IsZero() {
		a.session.PlayTime = a.session.EndTime.Sub(a.session.StartTime)
	}

	a.lifetime.GamesPlayed++
	a.lifetime.PlayTime += a.session.PlayTime
	a.lifetime.ChoicesMade += a.session.ChoicesMade
	if endingType != "" {
		a.lifetime.addEnding(endingType)
	}
	for id := range a.session.LocationsVisited {
		a.lifetime.addLocation(id)
	}
	for id := range a.session.EventsWitnessed {
		a.lifetime.addEvent(id)
	}
	a.lifetime.updateRecords(a.session)

	a.unlocked = a.checkAchievements()
	a.lifetime.save(a.path)
}

// RecordChoice counts a choice and classifies it as heroic or selfish
// from its effects and wording.
func (a *Accumulator) RecordChoice(c models.Choice, category string) {
	a.session.ChoicesMade++

	if category == models.CategoryMoral {
		a.session.MoralChoicesMade++
	}

	heroic, selfish := 0, 0
	if c.Effects != nil {
		for _, op := range c.Effects.Ops {
			switch op := op.(type) {
			case effect.StatDelta:
				if op.Stat == models.StatMorale && op.Delta > 0 {
					heroic++
				}
				if op.Stat == models.StatTension && op.Delta < 0 {
					selfish++
				}
			case effect.FactionDelta:
				if op.Delta > 0 {
					heroic++
				}
			}
		}
	}
	lower := strings.ToLower(c.Text)
	for _, w := range []string{"help", "save", "protect"} {
		if strings.Contains(lower, w) {
			heroic++
			break
		}
	}
	for _, w := range []string{"flee", "ignore", "refuse"} {
		if strings.Contains(lower, w) {
			selfish++
			break
		}
	}

	if heroic > selfish {
		a.session.HeroicActions++
	} else if selfish > heroic {
		a.session.SelfishActions++
	}
}

// VisitLocation records a visit.
func (a *Accumulator) VisitLocation(id string) {
	a.session.LocationsVisited[id] = struct{}{}
}

// MeetNPC records a first or repeat meeting.
func (a *Accumulator) MeetNPC(id string) {
	a.session.NPCsMet[id] = struct{}{}
}

// WitnessEvent records an event firing.
func (a *Accumulator) WitnessEvent(id, category string) {
	a.session.EventsWitnessed[id] = struct{}{}
	if category == models.CategoryViolence {
		a.session.ViolentEventsWitnessed++
	}
}

// FindItem records a discovered item.
func (a *Accumulator) FindItem(id string) {
	a.session.ItemsFound[id] = struct{}{}
}

// UseItem records an item use.
func (a *Accumulator) UseItem(id string) {
	a.session.ItemsUsed[id] = struct{}{}
}

// ObservePlayer updates meter maxima and relationship extremes after
// an effect application.
func (a *Accumulator) ObservePlayer(p *models.Player) {
	if p == nil {
		return
	}
	if v := p.Stats[models.StatTension]; v > a.session.MaxTension {
		a.session.MaxTension = v
	}
	if v := p.Stats[models.StatMorale]; v > a.session.MaxMorale {
		a.session.MaxMorale = v
	}
	if v := p.Stats[models.StatPtsd]; v > a.session.MaxPtsd {
		a.session.MaxPtsd = v
	}

	for faction, v := range p.Reputation {
		if v > a.session.BestFaction.Value {
			a.session.BestFaction = Extreme{Name: faction, Value: v}
		}
		if v < a.session.WorstFaction.Value {
			a.session.WorstFaction = Extreme{Name: faction, Value: v}
		}
	}
	for npc, v := range p.Relations {
		if v > a.session.BestNPC.Value {
			a.session.BestNPC = Extreme{Name: npc, Value: v}
		}
		if v < a.session.WorstNPC.Value {
			a.session.WorstNPC = Extreme{Name: npc, Value: v}
		}
	}
}
