package planner

import (
	"slices"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

// KeySet is an unordered set of work keys.
type KeySet map[model.WorkKey]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys ...model.WorkKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k.
func (s KeySet) Add(k model.WorkKey) { s[k] = struct{}{} }

// Has reports whether k is in the set. A nil set is empty.
func (s KeySet) Has(k model.WorkKey) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keys ordered by category then postal code.
func (s KeySet) Sorted() []model.WorkKey {
	out := make([]model.WorkKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b model.WorkKey) int {
		if a.Category != b.Category {
			if a.Category < b.Category {
				return -1
			}
			return 1
		}
		switch {
		case a.PostalCode < b.PostalCode:
			return -1
		case a.PostalCode > b.PostalCode:
			return 1
		}
		return 0
	})
	return out
}

// Plan returns the keys of all that are in neither completed nor skipped,
// in the order they appear in all, without duplicates.
func Plan(all []model.WorkKey, completed, skipped KeySet) []model.WorkKey {
	seen := make(KeySet, len(all))
	pending := make([]model.WorkKey, 0, len(all))
	for _, k := range all {
		if seen.Has(k) || completed.Has(k) || skipped.Has(k) {
			continue
		}
		seen.Add(k)
		pending = append(pending, k)
	}
	return pending
}

// Status summarizes what is left to do for a key space.
type Status int

const (
	// StatusPending means at least one key still needs fetching.
	StatusPending Status = iota
	// StatusDone means every key has an artifact or a skip-log entry.
	StatusDone
	// StatusRolledUp means every key is done and the region rollup exists.
	StatusRolledUp
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusRolledUp:
		return "rolled_up"
	default:
		return "unknown"
	}
}

// Outcome is the result of resume planning over a key space.
type Outcome struct {
	Pending   []model.WorkKey
	Total     int // distinct keys in the key space
	Completed int // keys of the key space with an artifact
	Empty     int // keys of the key space in the skip log
	Status    Status
}

// Done returns how many keys of the key space need no further fetching.
func (o Outcome) Done() int { return o.Completed + o.Empty }

// ResumeOption adjusts Resume.
type ResumeOption func(*resumeOpts)

type resumeOpts struct {
	rollupExists bool
}

// WithRollup tells Resume whether the region rollup is already on disk.
func WithRollup(exists bool) ResumeOption {
	return func(o *resumeOpts) { o.rollupExists = exists }
}

// Resume plans the key space and reports counts and a status value.
// Skip-log or artifact keys outside all are not counted.
func Resume(all []model.WorkKey, completed, skipped KeySet, opts ...ResumeOption) Outcome {
	var ro resumeOpts
	for _, o := range opts {
		o(&ro)
	}

	out := Outcome{Pending: Plan(all, completed, skipped)}
	counted := make(KeySet, len(all))
	for _, k := range all {
		if counted.Has(k) {
			continue
		}
		counted.Add(k)
		switch {
		case completed.Has(k):
			out.Completed++
		case skipped.Has(k):
			out.Empty++
		}
	}
	out.Total = len(counted)

	switch {
	case len(out.Pending) > 0:
		out.Status = StatusPending
	case ro.rollupExists:
		out.Status = StatusRolledUp
	default:
		out.Status = StatusDone
	}
	return out
}
