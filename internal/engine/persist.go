package engine

import (
	"fmt"
	"log"

	"github.com/kereth/troubles-sim/internal/models"
)

// Save writes the whole session under the named slot. Saving is only
// meaningful mid-game.
func (e *Engine) Save(name string) error {
	if e.state != StatePlaying && e.state != StatePaused {
		return fmt.Errorf("engine: nothing to save in state %d", e.state)
	}

	snap := &models.Snapshot{
		Version: models.SnapshotVersion,
		SavedAt: e.now(),
		Player:  e.player,
		Stats:   models.FlattenStats(e.gameStats),
		Story:   e.walker.Progress(),
		Events:  e.events.State(),
	}
	if err := models.SaveSnapshot(e.saveDir, name, snap); err != nil {
		return fmt.Errorf("engine: save %q: %w", name, err)
	}
	return nil
}

// Load replaces the session with the named slot and resumes play at
// the restored location. A snapshot that fails validation leaves the
// live session untouched.
func (e *Engine) Load(name string) error {
	snap, err := models.LoadSnapshot(e.saveDir, name)
	if err != nil {
		return fmt.Errorf("engine: load %q: %w", name, err)
	}
	if _, ok := e.content.Locations[snap.Player.Location]; !ok {
		return fmt.Errorf("engine: save %q references unknown location %q", name, snap.Player.Location)
	}

	e.player = snap.Player
	e.gameStats = snap.Stats.Restore()
	e.walker.Restore(snap.Story)
	e.events.Restore(snap.Events)
	e.dialogue = nil

	e.acc.StartSession(e.player.ID)
	e.state = StatePlaying
	e.sink.StateChanged(e.player, e.gameStats)

	// A save captured mid-event resumes at the event, otherwise at
	// the hub.
	if active := e.events.Active(); active != nil {
		e.sink.ShowEvent(e.eventView(active))
	} else {
		e.showHub()
	}
	return nil
}

// Saves lists the usable save slots.
func (e *Engine) Saves() []models.SnapshotInfo {
	infos, err := models.ListSnapshots(e.saveDir)
	if err != nil {
		log.Printf("engine: listing saves: %v", err)
		return nil
	}
	return infos
}

// DeleteSave removes a slot.
func (e *Engine) DeleteSave(name string) error {
	return models.DeleteSnapshot(e.saveDir, name)
}
