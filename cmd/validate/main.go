// Command validate runs the offline data-integrity checks over a
// content directory. The runtime is deliberately permissive about
// authoring mistakes; this is where they get surfaced.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/content"
	"github.com/kereth/troubles-sim/internal/models"
	"github.com/kereth/troubles-sim/internal/story"
)

func main() {
	dir := flag.String("data", "data", "content directory to validate")
	flag.Parse()

	c, err := content.Load(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}

	var findings []string
	report := func(format string, args ...any) {
		findings = append(findings, fmt.Sprintf(format, args...))
	}

	for _, issue := range story.Validate(&c.Graph) {
		report("%s", issue)
	}

	checkGraph(c, report)
	checkCharacters(c, report)
	checkLocations(c, report)
	checkDialogues(c, report)
	checkEvents(c, report)

	if len(findings) == 0 {
		fmt.Printf("validate: %s is clean\n", *dir)
		return
	}
	for _, f := range findings {
		fmt.Println(f)
	}
	fmt.Printf("validate: %d finding(s)\n", len(findings))
	os.Exit(1)
}

type reportFunc func(format string, args ...any)

func checkGraph(c *content.Content, report reportFunc) {
	for id, node := range c.Graph.Nodes {
		for _, choice := range node.Choices {
			checkChoice(c, fmt.Sprintf("node %q choice %q", id, choice.Text), choice, report)
			if node.Type == models.NodeCharacterSelection && choice.CharacterID != "" {
				if _, ok := c.Characters[choice.CharacterID]; !ok {
					report("node %q: choice %q selects unknown character %q", id, choice.Text, choice.CharacterID)
				}
			}
		}
		if node.Type == models.NodeEnding && node.EndingType == "" {
			report("node %q: ending without an ending_type", id)
		}
	}
}

func checkCharacters(c *content.Content, report reportFunc) {
	for id, ch := range c.Characters {
		if _, ok := c.Locations[ch.StartLocation]; !ok {
			report("character %q: start location %q not in catalog", id, ch.StartLocation)
		}
		for _, item := range ch.StartingInventory {
			if _, ok := c.Items[item]; !ok {
				report("character %q: starting item %q not in catalog", id, item)
			}
		}
		for _, stat := range []string{models.StatTension, models.StatMorale, models.StatPtsd} {
			if _, ok := ch.StartingStats[stat]; !ok {
				report("character %q: no starting %s", id, stat)
			}
		}
	}
}

func checkLocations(c *content.Content, report reportFunc) {
	for id, loc := range c.Locations {
		for _, dest := range loc.Connections {
			if _, ok := c.Locations[dest]; !ok {
				report("location %q: connection %q not in catalog", id, dest)
			}
		}
		for _, npc := range loc.NPCs {
			if _, ok := c.Dialogues[npc]; !ok {
				report("location %q: npc %q has no dialogue tree", id, npc)
			}
		}
	}
}

func checkDialogues(c *content.Content, report reportFunc) {
	for id, tree := range c.Dialogues {
		if _, ok := tree.Nodes[models.DialogueInitialNode]; !ok {
			report("dialogue %q: no %q node", id, models.DialogueInitialNode)
		}
		for nodeID, node := range tree.Nodes {
			for _, choice := range node.Choices {
				where := fmt.Sprintf("dialogue %q node %q choice %q", id, nodeID, choice.Text)
				checkChoice(c, where, choice, report)
				if choice.Next != "" {
					if _, ok := tree.Nodes[choice.Next]; !ok {
						report("%s: next node %q not in tree", where, choice.Next)
					}
				}
				if choice.Next == "" && !choice.End {
					report("%s: neither next nor end", where)
				}
			}
		}
	}
}

func checkEvents(c *content.Content, report reportFunc) {
	for _, def := range c.Events.All() {
		where := fmt.Sprintf("event %q", def.ID)
		if def.ID == "" {
			report("event with title %q has no id", def.Title)
			continue
		}
		if def.Location != "" {
			if _, ok := c.Locations[def.Location]; !ok {
				report("%s: location %q not in catalog", where, def.Location)
			}
		}
		for _, loc := range def.Locations {
			if _, ok := c.Locations[loc]; !ok {
				report("%s: location %q not in catalog", where, loc)
			}
		}
		if def.TriggerChance < 0 || def.TriggerChance > 1 {
			report("%s: trigger chance %v outside [0, 1]", where, def.TriggerChance)
		}
		if len(def.Choices) == 0 {
			report("%s: no choices", where)
		}
		checkConditions(c, where, def.TriggerConditions, report)
		for _, choice := range def.Choices {
			checkChoice(c, fmt.Sprintf("%s choice %q", where, choice.Text), choice, report)
		}
	}
}

// checkConditions flags contradictory stat bounds and dangling
// references inside a trigger-condition set.
func checkConditions(c *content.Content, where string, cond *condition.Conditions, report reportFunc) {
	if cond == nil {
		return
	}
	type bound struct {
		stat     string
		min, max int
	}
	for _, b := range []bound{
		{models.StatTension, cond.MinTension, cond.MaxTension},
		{models.StatMorale, cond.MinMorale, cond.MaxMorale},
		{models.StatPtsd, cond.MinPtsd, cond.MaxPtsd},
	} {
		if b.min != 0 && b.max != 0 && b.min > b.max {
			report("%s: %s bounds contradict (min %d > max %d)", where, b.stat, b.min, b.max)
		}
	}
	if cond.CharacterID != "" {
		if _, ok := c.Characters[cond.CharacterID]; !ok {
			report("%s: character %q not in catalog", where, cond.CharacterID)
		}
	}
	for _, item := range cond.RequiredItems {
		if _, ok := c.Items[item]; !ok {
			report("%s: required item %q not in catalog", where, item)
		}
	}
}

// checkChoice covers the fields every choice shape shares:
// requirements and effect references.
func checkChoice(c *content.Content, where string, choice models.Choice, report reportFunc) {
	for _, req := range choice.Requirements {
		if req.Item != "" {
			if _, ok := c.Items[req.Item]; !ok {
				report("%s: requires unknown item %q", where, req.Item)
			}
			continue
		}
		if !condition.KnownOperator(req.Operator) {
			report("%s: unknown operator %q", where, req.Operator)
		}
		if req.Type == "inventory" {
			if _, ok := c.Items[req.Key]; !ok {
				report("%s: requires unknown item %q", where, req.Key)
			}
		}
	}
	if choice.Dialogue != "" {
		if _, ok := c.Dialogues[choice.Dialogue]; !ok {
			report("%s: unknown dialogue %q", where, choice.Dialogue)
		}
	}
}
