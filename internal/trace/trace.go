package trace

import "time"

// Trace is one decaying, reinforcible memory record.
type Trace struct {
	ID                    string              `json:"id"`
	Content               interface{}         `json:"content"`
	InitialWeight         float64             `json:"initial_weight"`
	Weight                float64             `json:"current_weight"`
	CreatedAt             time.Time           `json:"created_at"`
	LastAccessedAt        time.Time           `json:"last_accessed_at"`
	AccessCount           int                 `json:"access_count"`
	EmotionalTags         map[string]struct{} `json:"-"`
	Associated            map[string]struct{} `json:"-"`
	ConsolidationStrength float64             `json:"consolidation_strength"`
	Consolidated          bool                `json:"is_consolidated"`
}

// Tags returns the emotional tags as a slice.
func (t *Trace) Tags() []string {
	out := make([]string, 0, len(t.EmotionalTags))
	for tag := range t.EmotionalTags {
		out = append(out, tag)
	}
	return out
}

// AssociatedIDs returns the ids of associated traces as a slice.
func (t *Trace) AssociatedIDs() []string {
	out := make([]string, 0, len(t.Associated))
	for id := range t.Associated {
		out = append(out, id)
	}
	return out
}

// snapshot returns a deep copy safe to hand out after the store lock is
// released.
func (t *Trace) snapshot() Trace {
	cp := *t
	cp.EmotionalTags = make(map[string]struct{}, len(t.EmotionalTags))
	for tag := range t.EmotionalTags {
		cp.EmotionalTags[tag] = struct{}{}
	}
	cp.Associated = make(map[string]struct{}, len(t.Associated))
	for id := range t.Associated {
		cp.Associated[id] = struct{}{}
	}
	return cp
}
