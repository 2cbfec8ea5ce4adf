package story

import (
	"fmt"

	"github.com/kereth/troubles-sim/internal/models"
)

// Issue is one data-integrity finding from the offline validator.
// These are authoring concerns; the runtime stays permissive about all
// of them.
type Issue struct {
	Type    string
	NodeID  string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: node %q: %s", i.Type, i.NodeID, i.Message)
}

// Validate inspects a story graph for unreachable nodes, dangling
// next-node references and dead ends (no choices, not an ending).
func Validate(graph *models.StoryGraph) []Issue {
	var issues []Issue

	reachable := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if reachable[id] {
			return
		}
		reachable[id] = true
		node, ok := graph.Nodes[id]
		if !ok {
			return
		}
		for _, c := range node.Choices {
			if c.NextNode != "" {
				walk(c.NextNode)
			}
		}
	}
	walk(graph.StartNode)

	for id, node := range graph.Nodes {
		if !reachable[id] {
			issues = append(issues, Issue{
				Type:    "unreachable_node",
				NodeID:  id,
				Message: "not reachable from the start node",
			})
		}
		for _, c := range node.Choices {
			if c.NextNode == "" {
				continue
			}
			if _, ok := graph.Nodes[c.NextNode]; !ok {
				issues = append(issues, Issue{
					Type:    "missing_node",
					NodeID:  id,
					Message: fmt.Sprintf("choice %q references missing node %q", c.Text, c.NextNode),
				})
			}
		}
		if len(node.Choices) == 0 && node.Type != models.NodeEnding {
			issues = append(issues, Issue{
				Type:    "dead_end",
				NodeID:  id,
				Message: "has no choices and is not an ending",
			})
		}
	}

	return issues
}
