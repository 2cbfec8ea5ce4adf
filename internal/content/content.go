// Package content is the content-source collaborator: it loads the
// YAML catalogs once at session start and hands them to the engine
// read-only.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kereth/troubles-sim/internal/models"
)

// Catalog file names under the data directory. endings.yaml is
// optional; its nodes are merged into the story graph.
const (
	storyFile      = "story.yaml"
	endingsFile    = "endings.yaml"
	charactersFile = "characters.yaml"
	locationsFile  = "locations.yaml"
	dialoguesFile  = "dialogues.yaml"
	eventsFile     = "events.yaml"
	itemsFile      = "items.yaml"
)

// Content is the full read-only game catalog.
type Content struct {
	Graph      models.StoryGraph
	Characters map[string]models.Character
	Locations  map[string]models.Location
	Dialogues  map[string]models.DialogueTree
	Events     models.EventCatalog
	Items      map[string]models.Item
}

// Load reads every catalog from dir. A missing or unreadable required
// catalog is the one genuinely unrecoverable condition the engine has:
// it aborts initialization.
func Load(dir string) (*Content, error) {
	c := &Content{}

	if err := readCatalog(dir, storyFile, &c.Graph); err != nil {
		return nil, err
	}
	if err := readCatalog(dir, charactersFile, &c.Characters); err != nil {
		return nil, err
	}
	if err := readCatalog(dir, locationsFile, &c.Locations); err != nil {
		return nil, err
	}
	if err := readCatalog(dir, dialoguesFile, &c.Dialogues); err != nil {
		return nil, err
	}
	if err := readCatalog(dir, eventsFile, &c.Events); err != nil {
		return nil, err
	}
	if err := readCatalog(dir, itemsFile, &c.Items); err != nil {
		return nil, err
	}

	// Ending nodes live in their own catalog; fold them into the
	// graph so navigation treats them like any other node.
	var endings struct {
		Nodes map[string]*models.StoryNode `yaml:"nodes"`
	}
	if err := readCatalog(dir, endingsFile, &endings); err == nil {
		for id, node := range endings.Nodes {
			c.Graph.Nodes[id] = node
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if len(c.Graph.Nodes) == 0 {
		return nil, fmt.Errorf("content: story graph in %s has no nodes", dir)
	}
	if _, ok := c.Graph.Nodes[c.Graph.StartNode]; !ok {
		return nil, fmt.Errorf("content: start node %q not in story graph", c.Graph.StartNode)
	}

	c.stampIDs()
	return c, nil
}

// stampIDs copies map keys into the records so consumers can pass a
// node or location around without its key.
func (c *Content) stampIDs() {
	for id, node := range c.Graph.Nodes {
		node.ID = id
	}
	for id, loc := range c.Locations {
		loc.ID = id
		c.Locations[id] = loc
	}
	for id, item := range c.Items {
		item.ID = id
		c.Items[id] = item
	}
	for category, defs := range map[string][]*models.EventDefinition{
		models.CategoryViolence:  c.Events.ViolentEvents,
		models.CategoryMoral:     c.Events.MoralDilemmas,
		models.CategoryEncounter: c.Events.RandomEncounters,
	} {
		for _, def := range defs {
			def.Category = category
		}
	}
}

// ItemIDs returns the full item catalog's ids in sorted order, for the
// uniform discovery pick during searches.
func (c *Content) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func readCatalog(dir, file string, out any) error {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("content: parse %s: %w", path, err)
	}
	return nil
}
