package event

import "github.com/kereth/troubles-sim/internal/models"

// Derived queries over the firing history. All are pure folds
// recomputed on demand; nothing here is cached.

// TraumaScore sums each fired event's declared trauma value, falling
// back to the category default when none is declared.
func (e *Engine) TraumaScore() int {
	trauma := 0
	for _, firing := range e.history {
		if def, ok := e.Find(firing.EventID); ok && def.TraumaValue != 0 {
			trauma += def.TraumaValue
			continue
		}
		switch firing.Category {
		case models.CategoryViolence:
			trauma += traumaViolence
		case models.CategoryMoral:
			trauma += traumaMoral
		}
	}
	return trauma
}

// ByCategory returns the firings of one category.
func (e *Engine) ByCategory(category string) []models.EventFiring {
	var out []models.EventFiring
	for _, firing := range e.history {
		if firing.Category == category {
			out = append(out, firing)
		}
	}
	return out
}

// WitnessedViolence reports whether any violent event fired; with a
// non-empty type it further requires a matching declared violence
// type.
func (e *Engine) WitnessedViolence(violenceType string) bool {
	for _, firing := range e.ByCategory(models.CategoryViolence) {
		if violenceType == "" {
			return true
		}
		if def, ok := e.Find(firing.EventID); ok && def.ViolenceType == violenceType {
			return true
		}
	}
	return false
}

// Statistics is the summary fold over the firing history.
type Statistics struct {
	TotalFirings   int
	TriggeredCount int
	ByCategory     map[string]int
	ByLocation     map[string]int
	ActiveID       string
}

// Stats summarizes the history.
func (e *Engine) Stats() Statistics {
	s := Statistics{
		TotalFirings:   len(e.history),
		TriggeredCount: len(e.triggered),
		ByCategory:     make(map[string]int),
		ByLocation:     make(map[string]int),
	}
	for _, firing := range e.history {
		s.ByCategory[firing.Category]++
		s.ByLocation[firing.Location]++
	}
	if e.active != nil {
		s.ActiveID = e.active.Def.ID
	}
	return s
}
