// Package story walks the story graph: navigation with history,
// template-text resolution and choice availability.
package story

import (
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/kereth/troubles-sim/internal/condition"
	"github.com/kereth/troubles-sim/internal/models"
)

// Walker holds the current position in the story graph, the history
// stack of prior nodes and the story-flag store. The graph itself is
// never mutated; Navigate returns per-access views.
type Walker struct {
	graph   *models.StoryGraph
	current string
	history []string
	flags   map[string]any
}

// New returns a walker positioned at the graph's start node.
func New(graph *models.StoryGraph) *Walker {
	w := &Walker{graph: graph}
	w.Reset()
	return w
}

// Reset moves back to the start node and clears history and flags.
func (w *Walker) Reset() {
	w.current = w.graph.StartNode
	w.history = nil
	w.flags = make(map[string]any)
}

// Current returns the current node id.
func (w *Walker) Current() string { return w.current }

// Node looks a node up without navigating.
func (w *Walker) Node(id string) (*models.StoryNode, bool) {
	n, ok := w.graph.Nodes[id]
	return n, ok
}

// Context carries everything template resolution and requirement
// checks may consult for one navigation.
type Context struct {
	// Vars are explicit values, checked before the flag store.
	Vars map[string]string

	// Built-in placeholder sources. Zero values leave the
	// corresponding placeholder unresolved.
	PlayerName string
	Location   string
	Now        func() time.Time

	// Env backs choice-requirement evaluation.
	Env condition.Env
}

// ResolvedChoice is a choice view with resolved text and computed
// availability.
type ResolvedChoice struct {
	models.Choice
	ResolvedText string
	Available    bool
}

// ResolvedNode is the per-access view of a story node.
type ResolvedNode struct {
	Node    *models.StoryNode
	Text    string
	Choices []ResolvedChoice
}

// Navigate moves to nodeID, pushing the prior node onto history, and
// returns the resolved view. A missing node id is a content-authoring
// error: it is logged, nothing changes, and ok is false.
func (w *Walker) Navigate(nodeID string, ctx Context) (*ResolvedNode, bool) {
	node, ok := w.graph.Nodes[nodeID]
	if !ok {
		log.Printf("story: node %q not found", nodeID)
		return nil, false
	}

	if w.current != "" {
		w.history = append(w.history, w.current)
	}
	w.current = nodeID

	return w.resolve(node, ctx), true
}

// Resolve produces the view for a node without moving.
func (w *Walker) Resolve(node *models.StoryNode, ctx Context) *ResolvedNode {
	return w.resolve(node, ctx)
}

func (w *Walker) resolve(node *models.StoryNode, ctx Context) *ResolvedNode {
	view := &ResolvedNode{
		Node: node,
		Text: w.ResolveText(node.Text, ctx),
	}
	for _, choice := range node.Choices {
		view.Choices = append(view.Choices, ResolvedChoice{
			Choice:       choice,
			ResolvedText: w.ResolveText(choice.Text, ctx),
			Available:    condition.AllMet(choice.Requirements, ctx.Env),
		})
	}
	return view
}

// GoBack pops the history stack. An empty stack is the stack's
// defined terminal state, not an error: GoBack returns ok=false and
// changes nothing.
func (w *Walker) GoBack() (*models.StoryNode, bool) {
	if len(w.history) == 0 {
		return nil, false
	}
	prevID := w.history[len(w.history)-1]
	w.history = w.history[:len(w.history)-1]

	node, ok := w.graph.Nodes[prevID]
	if !ok {
		log.Printf("story: history node %q no longer in graph", prevID)
		return nil, false
	}
	w.current = prevID
	return node, true
}

// SetFlag stores a story-branching value, independent of player
// state.
func (w *Walker) SetFlag(key string, value any) { w.flags[key] = value }

// Flag returns a stored flag value.
func (w *Walker) Flag(key string) (any, bool) {
	v, ok := w.flags[key]
	return v, ok
}

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ResolveText substitutes {variable} placeholders. Resolution order:
// explicit context value, flag store, built-ins. Anything else stays
// literal with a logged warning.
func (w *Walker) ResolveText(text string, ctx Context) string {
	if text == "" {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]

		if v, ok := ctx.Vars[name]; ok {
			return v
		}
		if v, ok := w.flags[name]; ok {
			return stringify(v)
		}

		switch name {
		case "currentLocation":
			if ctx.Location != "" {
				return ctx.Location
			}
		case "playerName":
			if ctx.PlayerName != "" {
				return ctx.PlayerName
			}
		case "currentTime":
			if ctx.Now != nil {
				return ctx.Now().Format(time.Kitchen)
			}
		}

		log.Printf("story: unresolved template variable %q", name)
		return match
	})
}

// Progress exports the walker's position for a snapshot.
func (w *Walker) Progress() models.StoryProgress {
	flags := make(map[string]any, len(w.flags))
	for k, v := range w.flags {
		flags[k] = v
	}
	return models.StoryProgress{
		Current: w.current,
		History: append([]string(nil), w.history...),
		Flags:   flags,
	}
}

// Restore replaces the walker's position from a snapshot.
func (w *Walker) Restore(p models.StoryProgress) {
	w.current = p.Current
	w.history = append([]string(nil), p.History...)
	w.flags = make(map[string]any, len(p.Flags))
	for k, v := range p.Flags {
		w.flags[k] = v
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
