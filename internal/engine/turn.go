package engine

import (
	"log"

	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/effect"
	"github.com/kereth/troubles-sim/internal/event"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/story"
)

// Action verbs available from a location hub.
const (
	ActionMove    = "move"
	ActionTalk    = "talk"
	ActionSearch  = "search"
	ActionRest    = "rest"
	ActionUseItem = "use_item"
)

// SelectChoice is the single turn entry point. Every player decision
// comes through here: menu picks, story choices, hub actions, dialogue
// lines and event responses.
func (e *Engine) SelectChoice(choice models.Choice) {
	switch e.state {
	case StateMenu:
		e.selectMenuChoice(choice)
		return
	case StatePlaying:
	default:
		log.Printf("engine: choice %q ignored in state %d", choice.Text, e.state)
		return
	}

	env := event.Env(e.player.Location, e.player, e.gameStats, e.events)
	if !condition.AllMet(choice.Requirements, env) {
		e.sink.Notify(NotifyWarning, "You can't do that right now.")
		return
	}

	e.gameStats.ChoicesMade++

	if active := e.events.Active(); active != nil {
		e.resolveEventChoice(active, choice)
		return
	}
	if e.dialogue != nil {
		e.advanceDialogue(choice)
		return
	}

	e.acc.RecordChoice(choice, "")
	e.applyChoiceEffects(choice)
	e.addJournal("Chose: "+choice.Text, "choice")

	switch {
	case choice.NextNode != "":
		e.goToNode(choice.NextNode)
	case choice.Action != "":
		e.performAction(choice.Action, choice.Target)
	case choice.Dialogue != "":
		e.talk(choice.Dialogue)
	default:
		e.showHub()
	}

	e.finishTurn()
}

// finishTurn is the common turn tail: terminal check first, then the
// state broadcast, then the once-per-turn event gate.
func (e *Engine) finishTurn() {
	if e.state != StatePlaying {
		return
	}
	if e.checkTerminal() {
		return
	}
	e.sink.StateChanged(e.player, e.gameStats)
	e.checkForRandomEvents()
}

func (e *Engine) selectMenuChoice(choice models.Choice) {
	switch {
	case choice.CharacterID != "":
		e.StartGame(choice.CharacterID)
	case choice.NextNode != "":
		e.showStoryNode(choice.NextNode)
	default:
		log.Printf("engine: menu choice %q leads nowhere", choice.Text)
	}
}

func (e *Engine) resolveEventChoice(active *event.Active, choice models.Choice) {
	result, ok := e.events.ResolveChoice(choice, e.player)
	if !ok {
		return
	}
	e.acc.ObservePlayer(e.player)
	e.acc.RecordChoice(choice, active.Def.Category)
	e.addJournal("Chose: "+choice.Text, "event_choice")

	e.sink.ShowEventResult(result)
	if e.checkTerminal() {
		return
	}
	e.showHub()
	e.finishTurn()
}

// goToNode routes a next_node transition by node type.
func (e *Engine) goToNode(id string) {
	node, ok := e.walker.Node(id)
	if !ok {
		log.Printf("engine: choice leads to unknown node %q", id)
		e.sink.Notify(NotifyError, "That part of the story is missing.")
		return
	}

	switch node.Type {
	case models.NodeEnding:
		e.walker.Navigate(id, e.templateContext())
		e.endGame(node)
	case models.NodeLocationHub:
		e.walker.Navigate(id, e.templateContext())
		e.showHub()
	default:
		e.showStoryNode(id)
	}
}

func (e *Engine) showStoryNode(id string) {
	view, ok := e.walker.Navigate(id, e.templateContext())
	if !ok {
		return
	}
	e.sink.ShowNode(view)
}

// showHub presents the current location in free-roam mode.
func (e *Engine) showHub() {
	loc, ok := e.Location()
	if !ok {
		log.Printf("engine: player location %q not in catalog", e.player.Location)
		return
	}
	e.sink.ShowHub(&HubView{
		Location: loc,
		Text:     e.walker.ResolveText(loc.Description, e.templateContext()),
		Actions:  e.availableActions(loc),
	})
}

// availableActions derives the hub action list from the location and
// the player's inventory: one move per connection, one talk per NPC
// present, search where the location allows it, use for each usable
// item held, and rest everywhere.
func (e *Engine) availableActions(loc models.Location) []models.Choice {
	var actions []models.Choice
	for _, dest := range loc.Connections {
		d, ok := e.content.Locations[dest]
		if !ok {
			log.Printf("engine: connection %q from %q not in catalog", dest, loc.ID)
			continue
		}
		actions = append(actions, models.Choice{Text: "Go to " + d.Name, Action: ActionMove, Target: dest})
	}
	for _, npc := range loc.NPCs {
		name := npc
		if tree, ok := e.content.Dialogues[npc]; ok && tree.Name != "" {
			name = tree.Name
		}
		actions = append(actions, models.Choice{Text: "Talk to " + name, Action: ActionTalk, Target: npc})
	}
	if loc.Searchable {
		actions = append(actions, models.Choice{Text: "Search the area", Action: ActionSearch})
	}
	for _, id := range e.player.Inventory {
		if item, ok := e.content.Items[id]; ok && item.Usable {
			actions = append(actions, models.Choice{Text: "Use " + item.Name, Action: ActionUseItem, Target: id})
		}
	}
	actions = append(actions, models.Choice{Text: "Rest a while", Action: ActionRest})
	return actions
}

func (e *Engine) performAction(action, target string) {
	switch action {
	case ActionMove:
		e.move(target)
	case ActionTalk:
		e.talk(target)
	case ActionSearch:
		e.search()
	case ActionRest:
		e.rest()
	case ActionUseItem:
		e.useItem(target)
	default:
		log.Printf("engine: unknown action %q", action)
		e.showHub()
	}
}

// move walks to a connected location. An unconnected or unknown target
// changes nothing beyond a warning.
func (e *Engine) move(target string) {
	from, _ := e.Location()
	dest, ok := e.content.Locations[target]
	if !ok || !from.Connected(target) {
		log.Printf("engine: illegal move %s -> %s", e.player.Location, target)
		e.sink.Notify(NotifyWarning, "You can't get there from here.")
		e.showHub()
		return
	}

	e.player.Location = target
	e.applyDelta(effect.Stats(map[string]int{models.StatTension: moveTensionCost}))
	e.gameStats.VisitLocation(target)
	e.acc.VisitLocation(target)
	e.addJournal("Moved to "+dest.Name, "movement")

	e.sink.LocationChanged(dest)
	e.showHub()
}

func (e *Engine) talk(npcID string) {
	e.gameStats.MeetNPC(npcID)
	e.acc.MeetNPC(npcID)
	e.startDialogue(npcID)
}

func (e *Engine) startDialogue(npcID string) {
	tree, ok := e.content.Dialogues[npcID]
	if !ok {
		log.Printf("engine: no dialogue tree for %q", npcID)
		e.sink.Notify(NotifyInfo, "They have nothing to say to you.")
		e.showHub()
		return
	}
	if _, ok := tree.Nodes[models.DialogueInitialNode]; !ok {
		log.Printf("engine: dialogue tree %q has no %q node", npcID, models.DialogueInitialNode)
		e.showHub()
		return
	}
	e.dialogue = &activeDialogue{npcID: npcID, tree: tree, node: models.DialogueInitialNode}
	e.showDialogue()
}

func (e *Engine) showDialogue() {
	d := e.dialogue
	node := d.tree.Nodes[d.node]
	ctx := e.templateContext()

	view := &DialogueView{
		NPCID:   d.npcID,
		NPCName: d.tree.Name,
		Text:    e.walker.ResolveText(node.Text, ctx),
	}
	for _, c := range node.Choices {
		view.Choices = append(view.Choices, story.ResolvedChoice{
			Choice:       c,
			ResolvedText: e.walker.ResolveText(c.Text, ctx),
			Available:    condition.AllMet(c.Requirements, ctx.Env),
		})
	}
	e.sink.ShowDialogue(view)
}

// advanceDialogue handles a line spoken inside a conversation. End or
// a missing next node both close the conversation and return to the
// hub.
func (e *Engine) advanceDialogue(choice models.Choice) {
	e.acc.RecordChoice(choice, "")
	e.applyChoiceEffects(choice)
	e.addJournal("Said: "+choice.Text, "dialogue")

	switch {
	case choice.End || choice.Next == "":
		e.dialogue = nil
		e.showHub()
	default:
		if _, ok := e.dialogue.tree.Nodes[choice.Next]; !ok {
			log.Printf("engine: dialogue node %q not in tree %q", choice.Next, e.dialogue.npcID)
			e.dialogue = nil
			e.showHub()
			break
		}
		e.dialogue.node = choice.Next
		e.showDialogue()
	}

	e.finishTurn()
}

// search rummages the current location. A location that can't be
// searched is a notification only, nothing changes. Otherwise tension
// is charged up front and the roll decides between a find, drawn
// suspicion and nothing.
func (e *Engine) search() {
	loc, ok := e.Location()
	if !ok || !loc.Searchable {
		e.sink.Notify(NotifyInfo, "There's nothing worth searching here.")
		e.showHub()
		return
	}

	e.applyDelta(effect.Stats(map[string]int{models.StatTension: searchTensionCost}))

	roll := e.rand.Float64()
	switch {
	case roll < searchFindChance:
		ids := e.content.ItemIDs()
		if len(ids) == 0 {
			e.sink.Notify(NotifyInfo, "You find nothing of use.")
			break
		}
		id := ids[e.rand.IntN(len(ids))]
		e.applyDelta(effect.Delta{Ops: []effect.Op{effect.InventoryAdd{Items: []string{id}}}})
		e.acc.FindItem(id)

		name := id
		if item, ok := e.content.Items[id]; ok {
			name = item.Name
		}
		e.addJournal("Found: "+name, "discovery")
		e.sink.Notify(NotifySuccess, "You found "+name+".")
	case roll < searchSuspicionChance:
		e.applyDelta(effect.Delta{Ops: []effect.Op{
			effect.FactionDelta{Faction: "british_army", Delta: -1},
			effect.StatDelta{Stat: models.StatTension, Delta: 3},
		}})
		e.addJournal("Drew suspicion while searching", "consequence")
		e.sink.Notify(NotifyWarning, "A patrol takes note of you. Best move along.")
	default:
		e.sink.Notify(NotifyInfo, "You find nothing of use.")
	}

	e.showHub()
}

func (e *Engine) rest() {
	e.applyDelta(effect.Stats(map[string]int{
		models.StatTension: -restTensionRelief,
		models.StatMorale:  restMoraleGain,
	}))
	e.addJournal("Rested for a while", "rest")
	e.sink.Notify(NotifyInfo, "You take a moment to breathe.")
	e.showHub()
}

func (e *Engine) useItem(id string) {
	item, ok := e.content.Items[id]
	if !ok || !e.player.HasItem(id) {
		log.Printf("engine: use of item %q the player does not hold", id)
		e.sink.Notify(NotifyWarning, "You don't have that.")
		e.showHub()
		return
	}
	if !item.Usable {
		e.sink.Notify(NotifyInfo, "There's no use for that right now.")
		e.showHub()
		return
	}

	if item.Effects != nil {
		e.applyDelta(*item.Effects)
	}
	if item.Consumable {
		e.applyDelta(effect.Delta{Ops: []effect.Op{effect.InventoryRemove{Items: []string{id}}}})
	}
	e.acc.UseItem(id)
	e.addJournal("Used: "+item.Name, "item")
	e.showHub()
}

// applyDelta runs the shared application routine and lets the
// analytics observer see the result.
func (e *Engine) applyDelta(d effect.Delta) {
	e.player.Apply(d)
	e.acc.ObservePlayer(e.player)
}
