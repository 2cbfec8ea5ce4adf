package stats

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GameRecord is one notable finished game in the lifetime record.
type GameRecord struct {
	PlayTime         time.Duration `yaml:"play_time"`
	ChoicesMade      int           `yaml:"choices_made"`
	LocationsVisited int           `yaml:"locations_visited"`
	EndingType       string        `yaml:"ending_type,omitempty"`
	Date             time.Time     `yaml:"date"`
}

// Lifetime is the cross-session aggregate, persisted between runs.
// Eligibility checks never consult it; it exists for the ending screen
// and achievements only.
type Lifetime struct {
	GamesPlayed int           `yaml:"games_played"`
	PlayTime    time.Duration `yaml:"play_time"`
	ChoicesMade int           `yaml:"choices_made"`

	EndingsUnlocked      []string `yaml:"endings_unlocked,omitempty"`
	CharactersPlayed     []string `yaml:"characters_played,omitempty"`
	LocationsDiscovered  []string `yaml:"locations_discovered,omitempty"`
	EventsEncountered    []string `yaml:"events_encountered,omitempty"`
	AchievementsUnlocked []string `yaml:"achievements_unlocked,omitempty"`

	BestGame     *GameRecord `yaml:"best_game,omitempty"`
	LongestGame  *GameRecord `yaml:"longest_game,omitempty"`
	ShortestGame *GameRecord `yaml:"shortest_game,omitempty"`

	FirstPlay time.Time `yaml:"first_play,omitempty"`
	LastPlay  time.Time `yaml:"last_play,omitempty"`
}

func (l *Lifetime) addEnding(id string)    { l.EndingsUnlocked = addUnique(l.EndingsUnlocked, id) }
func (l *Lifetime) addCharacter(id string) { l.CharactersPlayed = addUnique(l.CharactersPlayed, id) }
func (l *Lifetime) addLocation(id string) {
	l.LocationsDiscovered = addUnique(l.LocationsDiscovered, id)
}
func (l *Lifetime) addEvent(id string) { l.EventsEncountered = addUnique(l.EventsEncountered, id) }

func (l *Lifetime) hasAchievement(id string) bool {
	for _, a := range l.AchievementsUnlocked {
		if a == id {
			return true
		}
	}
	return false
}

func (l *Lifetime) updateRecords(s Session) {
	record := &GameRecord{
		PlayTime:         s.PlayTime,
		ChoicesMade:      s.ChoicesMade,
		LocationsVisited: len(s.LocationsVisited),
		EndingType:       s.EndingReached,
		Date:             s.EndTime,
	}

	if l.LongestGame == nil || record.PlayTime > l.LongestGame.PlayTime {
		l.LongestGame = record
	}
	if record.EndingType != "" && (l.ShortestGame == nil || record.PlayTime < l.ShortestGame.PlayTime) {
		l.ShortestGame = record
	}
	if l.BestGame == nil || record.LocationsVisited > l.BestGame.LocationsVisited {
		l.BestGame = record
	}
}

// checkAchievements evaluates every achievement rule against the just-
// finished session and the lifetime record, appending new unlocks.
func (a *Accumulator) checkAchievements() []string {
	s := a.session
	l := &a.lifetime

	var candidates []string
	if l.GamesPlayed == 1 {
		candidates = append(candidates, "first_game")
	}
	if s.EndingReached != "" {
		candidates = append(candidates, "ending_"+s.EndingReached)
	}
	if s.ChoicesMade >= 50 {
		candidates = append(candidates, "decision_maker")
	}
	if s.HeroicActions >= 10 {
		candidates = append(candidates, "hero")
	}
	if s.SelfishActions >= 10 {
		candidates = append(candidates, "survivor")
	}
	if len(s.LocationsVisited) >= 8 {
		candidates = append(candidates, "explorer")
	}
	if s.ViolentEventsWitnessed >= 5 {
		candidates = append(candidates, "witness")
	}
	if s.MaxTension >= 90 {
		candidates = append(candidates, "on_the_edge")
	}
	if s.MaxMorale >= 90 {
		candidates = append(candidates, "optimist")
	}
	if len(l.EndingsUnlocked) >= 3 {
		candidates = append(candidates, "all_endings")
	}
	if len(l.CharactersPlayed) >= 3 {
		candidates = append(candidates, "versatile")
	}
	if s.PlayTime >= 2*time.Hour {
		candidates = append(candidates, "dedicated")
	}
	if l.GamesPlayed >= 10 {
		candidates = append(candidates, "veteran")
	}

	var unlocked []string
	for _, id := range candidates {
		if !l.hasAchievement(id) {
			l.AchievementsUnlocked = append(l.AchievementsUnlocked, id)
			unlocked = append(unlocked, id)
		}
	}
	return unlocked
}

func loadLifetime(path string) Lifetime {
	var l Lifetime
	data, err := os.ReadFile(path)
	if err != nil {
		return l
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		log.Printf("stats: unreadable lifetime file %s, starting fresh: %v", path, err)
		return Lifetime{}
	}
	return l
}

func (l *Lifetime) save(path string) {
	if path == "" {
		return
	}
	data, err := yaml.Marshal(l)
	if err != nil {
		log.Printf("stats: marshal lifetime: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("stats: save lifetime: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("stats: save lifetime: %v", err)
	}
}

func addUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}
