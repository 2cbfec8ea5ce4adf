package engine

import (
	"testing"
	"time"

	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/content"
	"github.com/kereth/troubles-sim/internal/effect"
	"github.com/kereth/troubles-sim/internal/event"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/rng"
	"github.com/kereth/troubles-sim/internal/story"
)

// stubSink records everything the engine presents.
type stubSink struct {
	nodes    []*story.ResolvedNode
	hubs     []*HubView
	dialogs  []*DialogueView
	events   []*EventView
	results  []*event.Result
	endings  []*EndingView
	notices  []string
	levels   []NotifyLevel
	stateHit int
}

func (s *stubSink) ShowNode(n *story.ResolvedNode)  { s.nodes = append(s.nodes, n) }
func (s *stubSink) ShowHub(v *HubView)              { s.hubs = append(s.hubs, v) }
func (s *stubSink) ShowDialogue(v *DialogueView)    { s.dialogs = append(s.dialogs, v) }
func (s *stubSink) ShowEvent(v *EventView)          { s.events = append(s.events, v) }
func (s *stubSink) ShowEventResult(r *event.Result) { s.results = append(s.results, r) }
func (s *stubSink) ShowEnding(v *EndingView)        { s.endings = append(s.endings, v) }
func (s *stubSink) Notify(level NotifyLevel, msg string) {
	s.levels = append(s.levels, level)
	s.notices = append(s.notices, msg)
}
func (s *stubSink) StateChanged(p *models.Player, gs *models.GameStats) { s.stateHit++ }
func (s *stubSink) LocationChanged(loc models.Location)                 {}

func testContent() *content.Content {
	return &content.Content{
		Graph: models.StoryGraph{
			StartNode: "intro",
			Nodes: map[string]*models.StoryNode{
				"intro": {
					ID: "intro", Type: models.NodeStory,
					Text: "Belfast, 1972.",
					Choices: []models.Choice{
						{Text: "Begin", NextNode: "character_selection"},
					},
				},
				"character_selection": {
					ID: "character_selection", Type: models.NodeCharacterSelection,
					Text: "Who are you?",
					Choices: []models.Choice{
						{Text: "Ciarán", CharacterID: "ciaran"},
					},
				},
				"ending_exile": {
					ID: "ending_exile", Type: models.NodeEnding,
					EndingType: "exile", Title: "The Boat", Text: "You take the boat.",
				},
				"ending_martyr": {
					ID: "ending_martyr", Type: models.NodeEnding,
					EndingType: "martyr", Title: "A Name on a Wall", Text: "It ends suddenly.",
				},
			},
		},
		Characters: map[string]models.Character{
			"ciaran": {
				Name:          "Ciarán Doyle",
				StartLocation: "falls_road",
				StartingStats: map[string]int{
					models.StatTension: 30, models.StatMorale: 60, models.StatPtsd: 10,
				},
				StartingInventory: []string{"cigarettes"},
				FactionReputation: map[string]int{"british_army": 0, "civilians": 2},
			},
		},
		Locations: map[string]models.Location{
			"falls_road": {
				ID: "falls_road", Name: "The Falls Road",
				Description: "Terraced brick and painted kerbstones.",
				Connections: []string{"city_centre"},
				NPCs:        []string{"mrs_kelly"},
				Searchable:  true,
			},
			"city_centre": {
				ID: "city_centre", Name: "The City Centre",
				Description: "Turnstiles and bag searches.",
				Connections: []string{"falls_road", "the_docks"},
			},
			"the_docks": {
				ID: "the_docks", Name: "The Docks",
				Description: "Gantries and grey water.",
				Connections: []string{"city_centre"},
			},
		},
		Dialogues: map[string]models.DialogueTree{
			"mrs_kelly": {
				Name: "Mrs Kelly",
				Nodes: map[string]models.DialogueNode{
					"initial": {
						Text: "Come in out of that.",
						Choices: []models.Choice{
							{Text: "Ask about the road", Next: "news"},
							{Text: "Make your excuses", End: true},
						},
					},
					"news": {
						Text: "They lifted the Duffy lad last night.",
						Choices: []models.Choice{
							{Text: "Promise to keep an eye out", End: true,
								Effects: &effect.Delta{Ops: []effect.Op{
									effect.RelationshipDelta{NPC: "mrs_kelly", Delta: 1},
								}}},
						},
					},
				},
			},
		},
		Events: models.EventCatalog{
			MoralDilemmas: []*models.EventDefinition{
				{
					ID: "hidden_weapon", Title: "The Package in the Yard",
					Description: "A bundle wrapped in oilcloth.",
					Category:    models.CategoryMoral,
					Choices: []models.Choice{
						{Text: "Say nothing", Consequence: "You sleep badly.",
							Effects: &effect.Delta{Ops: []effect.Op{
								effect.StatDelta{Stat: models.StatTension, Delta: 8},
							}}},
					},
				},
			},
		},
		Items: map[string]models.Item{
			"cigarettes": {
				ID: "cigarettes", Name: "Packet of Cigarettes",
				Usable: true, Consumable: true,
				Effects: &effect.Delta{Ops: []effect.Op{
					effect.StatDelta{Stat: models.StatTension, Delta: -4},
				}},
			},
		},
	}
}

// newTestEngine builds an engine whose random draws are fully
// scripted. The first sample feeds the event gate that runs at game
// start.
func newTestEngine(t *testing.T, samples []float64, ints []int) (*Engine, *stubSink) {
	t.Helper()
	sink := &stubSink{}
	eng := New(testContent(), Options{
		Sink:    sink,
		Rand:    &rng.Sequence{Samples: samples, Ints: ints},
		Now:     func() time.Time { return time.Date(1972, 7, 21, 14, 0, 0, 0, time.UTC) },
		SaveDir: t.TempDir(),
	})
	return eng, sink
}

func startGame(eng *Engine) {
	eng.Start()
	eng.SelectChoice(models.Choice{Text: "Begin", NextNode: "character_selection"})
	eng.SelectChoice(models.Choice{Text: "Ciarán", CharacterID: "ciaran"})
}

func TestStartFlow(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9}, nil)

	eng.Start()
	if eng.State() != StateMenu {
		t.Fatalf("Expected menu state, got %d", eng.State())
	}
	if len(sink.nodes) != 1 || sink.nodes[0].Node.ID != "intro" {
		t.Fatal("Expected the intro node presented")
	}

	eng.SelectChoice(models.Choice{NextNode: "character_selection"})
	if len(sink.nodes) != 2 || sink.nodes[1].Node.ID != "character_selection" {
		t.Fatal("Expected the character-selection node presented")
	}

	eng.SelectChoice(models.Choice{CharacterID: "ciaran"})
	if eng.State() != StatePlaying {
		t.Fatalf("Expected playing state, got %d", eng.State())
	}
	p := eng.Player()
	if p == nil || p.Name != "Ciarán Doyle" || p.Location != "falls_road" {
		t.Fatalf("Unexpected player %+v", p)
	}
	if len(sink.hubs) != 1 || sink.hubs[0].Location.ID != "falls_road" {
		t.Fatal("Expected the starting hub presented")
	}
}

func TestUnknownCharacter(t *testing.T) {
	eng, sink := newTestEngine(t, nil, nil)
	eng.Start()

	eng.SelectChoice(models.Choice{CharacterID: "nobody"})
	if eng.State() != StateMenu {
		t.Error("Expected state to stay menu")
	}
	if len(sink.levels) != 1 || sink.levels[0] != NotifyError {
		t.Error("Expected one error notification")
	}
}

func TestTensionEndsInExile(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9}, nil)
	startGame(eng)

	eng.Player().Stats[models.StatTension] = 99
	eng.SelectChoice(models.Choice{
		Text: "Push your luck",
		Effects: &effect.Delta{Ops: []effect.Op{
			effect.StatDelta{Stat: models.StatTension, Delta: 5},
		}},
	})

	if eng.State() != StateEnded {
		t.Fatalf("Expected ended state, got %d", eng.State())
	}
	if len(sink.endings) != 1 || sink.endings[0].Node.ID != "ending_exile" {
		t.Fatal("Expected the exile ending")
	}
	if eng.Player().Stats[models.StatTension] != 100 {
		t.Errorf("Expected tension clamped at 100, got %d", eng.Player().Stats[models.StatTension])
	}
}

func TestMoraleEndsInMartyrdom(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9}, nil)
	startGame(eng)

	eng.Player().Stats[models.StatMorale] = 1
	eng.SelectChoice(models.Choice{
		Text: "Give up",
		Effects: &effect.Delta{Ops: []effect.Op{
			effect.StatDelta{Stat: models.StatMorale, Delta: -5},
		}},
	})

	if len(sink.endings) != 1 || sink.endings[0].Node.ID != "ending_martyr" {
		t.Fatal("Expected the martyr ending")
	}
}

func TestTensionOutranksMorale(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9}, nil)
	startGame(eng)

	// Both terminal conditions hold at once; the check order picks
	// exile.
	eng.Player().Stats[models.StatTension] = 100
	eng.Player().Stats[models.StatMorale] = 0
	eng.SelectChoice(models.Choice{Text: "Stand still"})

	if len(sink.endings) != 1 || sink.endings[0].Node.ID != "ending_exile" {
		t.Fatal("Expected exile to win the terminal-check order")
	}
}

func TestHostileFactionEndsInMartyrdom(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9}, nil)
	startGame(eng)

	eng.Player().Reputation["british_army"] = -10
	eng.SelectChoice(models.Choice{Text: "Stand still"})

	if len(sink.endings) != 1 || sink.endings[0].Node.ID != "ending_martyr" {
		t.Fatal("Expected the martyr ending on hostile faction")
	}
}

func TestIllegalMoveChangesNothing(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)

	before := eng.Player().Stats[models.StatTension]
	warnings := len(sink.notices)

	eng.SelectChoice(models.Choice{Action: ActionMove, Target: "the_docks"})

	if eng.Player().Location != "falls_road" {
		t.Errorf("Expected location unchanged, got %q", eng.Player().Location)
	}
	if eng.Player().Stats[models.StatTension] != before {
		t.Errorf("Expected tension unchanged at %d, got %d", before, eng.Player().Stats[models.StatTension])
	}
	if len(sink.notices) != warnings+1 || sink.levels[len(sink.levels)-1] != NotifyWarning {
		t.Error("Expected exactly one warning")
	}
}

func TestMoveCostsTension(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)

	eng.SelectChoice(models.Choice{Action: ActionMove, Target: "city_centre"})

	if eng.Player().Location != "city_centre" {
		t.Fatalf("Expected move to city_centre, got %q", eng.Player().Location)
	}
	if got := eng.Player().Stats[models.StatTension]; got != 31 {
		t.Errorf("Expected tension 31 after move, got %d", got)
	}
	if _, ok := eng.GameStats().LocationsVisited["city_centre"]; !ok {
		t.Error("Expected city_centre in visited set")
	}
}

func TestSearchBranches(t *testing.T) {
	// Find: search roll 0.1, item pick 0, event gate 0.9.
	eng, sink := newTestEngine(t, []float64{0.9, 0.1, 0.9}, []int{0})
	startGame(eng)
	eng.Player().Inventory = nil

	eng.SelectChoice(models.Choice{Action: ActionSearch})
	if got := eng.Player().Stats[models.StatTension]; got != 32 {
		t.Errorf("Expected tension 32 after a clean find, got %d", got)
	}
	if !eng.Player().HasItem("cigarettes") {
		t.Error("Expected the found item in inventory")
	}
	if sink.levels[len(sink.levels)-1] != NotifySuccess {
		t.Error("Expected a success notification")
	}

	// Suspicion: search roll 0.3.
	eng2, sink2 := newTestEngine(t, []float64{0.9, 0.3, 0.9}, nil)
	startGame(eng2)
	eng2.SelectChoice(models.Choice{Action: ActionSearch})
	if got := eng2.Player().Stats[models.StatTension]; got != 35 {
		t.Errorf("Expected tension 35 after drawing suspicion, got %d", got)
	}
	if got := eng2.Player().Reputation["british_army"]; got != -1 {
		t.Errorf("Expected british_army reputation -1, got %d", got)
	}
	if sink2.levels[len(sink2.levels)-1] != NotifyWarning {
		t.Error("Expected a warning notification")
	}

	// Nothing: search roll 0.7.
	eng3, _ := newTestEngine(t, []float64{0.9, 0.7, 0.9}, nil)
	startGame(eng3)
	eng3.SelectChoice(models.Choice{Action: ActionSearch})
	if got := eng3.Player().Stats[models.StatTension]; got != 32 {
		t.Errorf("Expected tension 32 after finding nothing, got %d", got)
	}
}

func TestSearchUnsearchableLocation(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9, 0.9, 0.9}, nil)
	startGame(eng)
	eng.SelectChoice(models.Choice{Action: ActionMove, Target: "city_centre"})

	before := eng.Player().Stats[models.StatTension]
	items := len(eng.Player().Inventory)

	eng.SelectChoice(models.Choice{Action: ActionSearch})

	if got := eng.Player().Stats[models.StatTension]; got != before {
		t.Errorf("Expected tension unchanged at %d, got %d", before, got)
	}
	if len(eng.Player().Inventory) != items {
		t.Error("Expected inventory unchanged")
	}
	if sink.levels[len(sink.levels)-1] != NotifyInfo {
		t.Error("Expected an informational notification")
	}
}

func TestRest(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)

	eng.SelectChoice(models.Choice{Action: ActionRest})
	if got := eng.Player().Stats[models.StatTension]; got != 27 {
		t.Errorf("Expected tension 27 after rest, got %d", got)
	}
	if got := eng.Player().Stats[models.StatMorale]; got != 62 {
		t.Errorf("Expected morale 62 after rest, got %d", got)
	}
}

func TestUseConsumableItem(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)

	eng.SelectChoice(models.Choice{Action: ActionUseItem, Target: "cigarettes"})
	if got := eng.Player().Stats[models.StatTension]; got != 26 {
		t.Errorf("Expected tension 26 after smoking, got %d", got)
	}
	if eng.Player().HasItem("cigarettes") {
		t.Error("Expected consumable removed from inventory")
	}
}

func TestDialogueFlow(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9, 0.9, 0.9, 0.9}, nil)
	startGame(eng)

	eng.SelectChoice(models.Choice{Action: ActionTalk, Target: "mrs_kelly"})
	if len(sink.dialogs) != 1 || sink.dialogs[0].NPCName != "Mrs Kelly" {
		t.Fatal("Expected the opening dialogue node")
	}
	if _, ok := eng.GameStats().NPCsMet["mrs_kelly"]; !ok {
		t.Error("Expected mrs_kelly in met set")
	}

	eng.SelectChoice(models.Choice{Text: "Ask about the road", Next: "news"})
	if len(sink.dialogs) != 2 || sink.dialogs[1].Text != "They lifted the Duffy lad last night." {
		t.Fatal("Expected the news node")
	}

	hubsBefore := len(sink.hubs)
	eng.SelectChoice(models.Choice{
		Text: "Promise to keep an eye out", End: true,
		Effects: &effect.Delta{Ops: []effect.Op{
			effect.RelationshipDelta{NPC: "mrs_kelly", Delta: 1},
		}},
	})
	if len(sink.hubs) != hubsBefore+1 {
		t.Error("Expected return to the hub after the conversation")
	}
	if got := eng.Player().Relations["mrs_kelly"]; got != 1 {
		t.Errorf("Expected mrs_kelly relationship 1, got %d", got)
	}
}

func TestEventInterruptAndResolve(t *testing.T) {
	// The gate draw at game start is 0.1 < 0.3, so the dilemma fires
	// immediately; the pick draw selects it. The 0.9 fails the gate on
	// the turn that resolves it.
	eng, sink := newTestEngine(t, []float64{0.1, 0.9}, []int{0})
	startGame(eng)

	if len(sink.events) != 1 || sink.events[0].Def.ID != "hidden_weapon" {
		t.Fatal("Expected the dilemma presented at start")
	}
	if eng.Events().Active() == nil {
		t.Fatal("Expected an active event")
	}

	tensionBefore := eng.Player().Stats[models.StatTension]
	eng.SelectChoice(models.Choice{
		Text: "Say nothing", Consequence: "You sleep badly.",
		Effects: &effect.Delta{Ops: []effect.Op{
			effect.StatDelta{Stat: models.StatTension, Delta: 8},
		}},
	})

	if len(sink.results) != 1 || sink.results[0].Consequence != "You sleep badly." {
		t.Fatal("Expected the consequence presented")
	}
	if got := eng.Player().Stats[models.StatTension]; got != tensionBefore+8 {
		t.Errorf("Expected tension %d, got %d", tensionBefore+8, got)
	}
	if eng.Events().Active() != nil {
		t.Error("Expected the event cleared")
	}
	if !eng.Events().Triggered("hidden_weapon") {
		t.Error("Expected the event marked triggered")
	}
}

func TestEventGateRunsAfterResolution(t *testing.T) {
	// Both gate draws pass: the dilemma fires at start and, being
	// repeatable, again on the turn that resolves it.
	eng, sink := newTestEngine(t, []float64{0.1, 0.1}, []int{0, 0})
	eng.content.Events.MoralDilemmas[0].Repeatable = true
	startGame(eng)

	if len(sink.events) != 1 {
		t.Fatalf("Expected one event at start, got %d", len(sink.events))
	}

	eng.SelectChoice(models.Choice{Text: "Say nothing"})

	if len(sink.events) != 2 {
		t.Fatalf("Expected a second event after resolution, got %d", len(sink.events))
	}
	if eng.Events().Active() == nil {
		t.Error("Expected a live event from the post-resolution check")
	}
}

func TestLockedChoiceRefused(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9}, nil)
	startGame(eng)

	choices := eng.GameStats().ChoicesMade
	eng.SelectChoice(models.Choice{
		Text:         "Show the card",
		Requirements: []condition.Requirement{{Item: "press_card"}},
	})

	if eng.GameStats().ChoicesMade != choices {
		t.Error("Expected a refused choice not to count")
	}
	if sink.levels[len(sink.levels)-1] != NotifyWarning {
		t.Error("Expected a warning")
	}
}

func TestJournalRecordsBothTexts(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)

	eng.SelectChoice(models.Choice{Action: ActionRest})

	journal := eng.Player().Journal
	if len(journal) == 0 {
		t.Fatal("Expected journal entries")
	}
	last := journal[len(journal)-1]
	if last.ObjectiveText != "Rested for a while" {
		t.Errorf("Unexpected objective text %q", last.ObjectiveText)
	}
	if last.Text == "" || last.Location != "falls_road" {
		t.Errorf("Unexpected entry %+v", last)
	}
}

func TestSaveAndLoad(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9, 0.9, 0.9}, nil)
	startGame(eng)
	eng.SelectChoice(models.Choice{Action: ActionMove, Target: "city_centre"})

	if err := eng.Save("slot1"); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	sink2 := &stubSink{}
	eng2 := New(testContent(), Options{
		Sink:    sink2,
		Rand:    &rng.Sequence{},
		SaveDir: eng.saveDir,
	})
	if err := eng2.Load("slot1"); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if eng2.State() != StatePlaying {
		t.Fatalf("Expected playing state, got %d", eng2.State())
	}
	if eng2.Player().Location != "city_centre" {
		t.Errorf("Expected restored location city_centre, got %q", eng2.Player().Location)
	}
	if eng2.Player().Stats[models.StatTension] != 31 {
		t.Errorf("Expected restored tension 31, got %d", eng2.Player().Stats[models.StatTension])
	}
	if eng2.GameStats().ChoicesMade != eng.GameStats().ChoicesMade {
		t.Error("Expected restored choice count")
	}
	if len(sink2.hubs) != 1 || sink2.hubs[0].Location.ID != "city_centre" {
		t.Error("Expected the restored hub presented")
	}

	saves := eng2.Saves()
	if len(saves) != 1 || saves[0].Name != "slot1" {
		t.Errorf("Unexpected save list %+v", saves)
	}
}

func TestFailedLoadKeepsLiveState(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9}, nil)
	startGame(eng)

	snap := &models.Snapshot{
		Version: models.SnapshotVersion,
		Player: &models.Player{
			ID:       "ciaran",
			Location: "derry",
			Stats:    map[string]int{models.StatTension: 90},
		},
	}
	if err := models.SaveSnapshot(eng.saveDir, "bad", snap); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}

	if err := eng.Load("bad"); err == nil {
		t.Fatal("Expected an error for an unknown location")
	}
	if eng.Player().Location != "falls_road" {
		t.Errorf("Expected live location kept, got %q", eng.Player().Location)
	}
	if got := eng.Player().Stats[models.StatTension]; got != 30 {
		t.Errorf("Expected live tension 30, got %d", got)
	}
	if eng.State() != StatePlaying {
		t.Errorf("Expected playing state, got %d", eng.State())
	}
}

func TestPauseResume(t *testing.T) {
	eng, _ := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)

	eng.Pause()
	if eng.State() != StatePaused {
		t.Fatalf("Expected paused state, got %d", eng.State())
	}

	before := eng.Player().Stats[models.StatMorale]
	eng.SelectChoice(models.Choice{Action: ActionRest})
	if got := eng.Player().Stats[models.StatMorale]; got != before {
		t.Errorf("Expected morale unchanged while paused, got %d", got)
	}

	eng.Resume()
	if eng.State() != StatePlaying {
		t.Fatalf("Expected playing state, got %d", eng.State())
	}
	eng.SelectChoice(models.Choice{Action: ActionRest})
	if got := eng.Player().Stats[models.StatMorale]; got != before+restMoraleGain {
		t.Errorf("Expected morale %d after resuming, got %d", before+restMoraleGain, got)
	}
}

func TestRestart(t *testing.T) {
	eng, sink := newTestEngine(t, []float64{0.9, 0.9}, nil)
	startGame(eng)
	eng.SelectChoice(models.Choice{Action: ActionRest})

	eng.Restart()
	if eng.State() != StateMenu {
		t.Fatalf("Expected menu state, got %d", eng.State())
	}
	if eng.Player() != nil {
		t.Error("Expected player discarded")
	}
	if last := sink.nodes[len(sink.nodes)-1]; last.Node.ID != "intro" {
		t.Error("Expected the intro presented again")
	}
}
