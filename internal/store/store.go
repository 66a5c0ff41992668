// Package store holds the in-memory, per-series observation sequences the
// statistics layer evaluates against. It is rebuilt each run from the
// persisted snapshot plus the freshly fetched observations.
package store

import (
	"sort"

	"RiskPulse/internal/domain/models"
)

// DefaultTail bounds how many trailing points a series keeps.
const DefaultTail = 600

// Series is a time-ordered observation sequence for one series id,
// unique on data date.
type Series struct {
	ID     string
	points []models.Observation
}

// Len returns the number of retained observations.
func (s *Series) Len() int { return len(s.points) }

// At returns the observation at index i (0 = oldest).
func (s *Series) At(i int) models.Observation { return s.points[i] }

// Last returns the most recent observation and whether one exists.
func (s *Series) Last() (models.Observation, bool) {
	if len(s.points) == 0 {
		return models.Observation{}, false
	}
	return s.points[len(s.points)-1], true
}

// Points returns a copy of the retained observations, oldest first.
func (s *Series) Points() []models.Observation {
	out := make([]models.Observation, len(s.points))
	copy(out, s.points)
	return out
}

// append inserts obs in date order. An existing point on the same date is
// replaced wholesale: last write wins.
func (s *Series) append(obs models.Observation) {
	i := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].DataDate.Before(obs.DataDate)
	})
	if i < len(s.points) && s.points[i].DataDate.Equal(obs.DataDate) {
		s.points[i] = obs
		return
	}
	s.points = append(s.points, models.Observation{})
	copy(s.points[i+1:], s.points[i:])
	s.points[i] = obs
}

// trim drops the oldest points beyond max.
func (s *Series) trim(max int) {
	if max > 0 && len(s.points) > max {
		s.points = append([]models.Observation(nil), s.points[len(s.points)-max:]...)
	}
}

// Store keeps every series of one module family.
type Store struct {
	tail   int
	series map[string]*Series
}

// New creates a store trimming each series to tail points (DefaultTail if
// tail <= 0).
func New(tail int) *Store {
	if tail <= 0 {
		tail = DefaultTail
	}
	return &Store{tail: tail, series: make(map[string]*Series)}
}

// Append merges observations into their series, deduping by data date and
// trimming each touched series to the configured tail.
func (st *Store) Append(obs ...models.Observation) {
	touched := make(map[string]struct{}, 4)
	for _, o := range obs {
		if o.SeriesID == "" || o.DataDate.IsZero() {
			continue
		}
		s, ok := st.series[o.SeriesID]
		if !ok {
			s = &Series{ID: o.SeriesID}
			st.series[o.SeriesID] = s
		}
		s.append(o)
		touched[o.SeriesID] = struct{}{}
	}
	for id := range touched {
		st.series[id].trim(st.tail)
	}
}

// Series returns the sequence for id, or nil if the id has never been seen.
func (st *Store) Series(id string) *Series {
	return st.series[id]
}

// IDs returns all known series ids, sorted.
func (st *Store) IDs() []string {
	ids := make([]string, 0, len(st.series))
	for id := range st.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns all retained observations keyed by series id, for
// persistence between runs.
func (st *Store) Snapshot() map[string][]models.Observation {
	out := make(map[string][]models.Observation, len(st.series))
	for id, s := range st.series {
		out[id] = s.Points()
	}
	return out
}
