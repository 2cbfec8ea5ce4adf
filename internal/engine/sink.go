package engine

import (
	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/event"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/stats"
	"github.com/kereth/troubles-sim/internal/story"
)

// NotifyLevel grades out-of-band messages to the player.
type NotifyLevel int

const (
	NotifyInfo NotifyLevel = iota
	NotifyWarning
	NotifySuccess
	NotifyError
)

// Sink receives everything the engine wants presented. The terminal
// frontend implements it; tests implement it with a recording stub.
type Sink interface {
	// ShowNode presents a resolved story node and its choices.
	ShowNode(n *story.ResolvedNode)
	// ShowHub presents the free-roam view of the current location.
	ShowHub(v *HubView)
	// ShowDialogue presents the current node of a conversation.
	ShowDialogue(v *DialogueView)
	// ShowEvent presents a newly triggered event, interrupting
	// whatever was on screen.
	ShowEvent(v *EventView)
	// ShowEventResult presents the consequence of an event choice.
	ShowEventResult(r *event.Result)
	// ShowEnding presents a terminal node with the session summary.
	ShowEnding(v *EndingView)
	// Notify delivers a transient out-of-band message.
	Notify(level NotifyLevel, msg string)
	// StateChanged reports that player or session aggregates moved.
	StateChanged(p *models.Player, gs *models.GameStats)
	// LocationChanged reports a completed move.
	LocationChanged(loc models.Location)
}

// HubView is the free-roam presentation of a location: its resolved
// description plus the actions currently available there.
type HubView struct {
	Location models.Location
	Text     string
	Actions  []models.Choice
}

// DialogueView is one conversation step.
type DialogueView struct {
	NPCID   string
	NPCName string
	Text    string
	Choices []story.ResolvedChoice
}

// EventView is a triggered event awaiting a response. Choices carry
// availability so locked options can be rendered greyed out.
type EventView struct {
	Def         *models.EventDefinition
	Description string
	Choices     []story.ResolvedChoice
}

// EndingView is the terminal presentation: the ending node plus the
// session's analytics.
type EndingView struct {
	Node         *models.StoryNode
	Text         string
	Player       *models.Player
	Session      stats.Session
	Achievements []string
	TraumaScore  int
}

// eventView resolves an active event's text and choice availability
// against the current player.
func (e *Engine) eventView(a *event.Active) *EventView {
	ctx := e.templateContext()
	v := &EventView{
		Def:         a.Def,
		Description: e.walker.ResolveText(a.Def.Description, ctx),
	}
	for _, c := range a.Def.Choices {
		v.Choices = append(v.Choices, story.ResolvedChoice{
			Choice:       c,
			ResolvedText: e.walker.ResolveText(c.Text, ctx),
			Available:    condition.AllMet(c.Requirements, ctx.Env),
		})
	}
	return v
}
