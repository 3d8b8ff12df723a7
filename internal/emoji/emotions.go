package emoji

import (
	"log/slog"
	"strconv"
	"strings"
)

// mappingSeparator is the full-width colon the config entry format uses.
// An ASCII colon does not split an entry.
const mappingSeparator = "："

// MappingEntry is one emotion label with its reaction-id pool.
// Duplicates in IDs are permitted and order is preserved.
type MappingEntry struct {
	Label string
	IDs   []int
}

// Mapping is the ordered emotion-label → reaction-id pool table.
// Lookup scans entries in insertion order; a label that appears as a substring
// of the classifier output counts as a match.
type Mapping struct {
	entries []MappingEntry
}

// ParseMapping builds a Mapping from "label：id id id" entries.
// Malformed entries (no full-width colon, or a non-numeric id) are dropped
// with a warning, never fatal. A repeated label overwrites the earlier pool
// while keeping its original position.
func ParseMapping(entries []string) *Mapping {
	m := &Mapping{}
	for _, entry := range entries {
		label, rest, ok := strings.Cut(entry, mappingSeparator)
		if !ok {
			slog.Warn("unparseable emotions mapping entry", "entry", entry)
			continue
		}
		label = strings.TrimSpace(label)

		fields := strings.Fields(rest)
		ids := make([]int, 0, len(fields))
		valid := true
		for _, f := range fields {
			id, err := strconv.Atoi(f)
			if err != nil {
				slog.Warn("unparseable emotions mapping entry", "entry", entry, "bad_id", f)
				valid = false
				break
			}
			ids = append(ids, id)
		}
		if !valid {
			continue
		}

		if existing := m.find(label); existing != nil {
			existing.IDs = ids
			continue
		}
		m.entries = append(m.entries, MappingEntry{Label: label, IDs: ids})
	}
	return m
}

func (m *Mapping) find(label string) *MappingEntry {
	for i := range m.entries {
		if m.entries[i].Label == label {
			return &m.entries[i]
		}
	}
	return nil
}

// Labels returns the labels in insertion order. Used to build the closed
// label list sent to the classifier.
func (m *Mapping) Labels() []string {
	labels := make([]string, len(m.entries))
	for i, e := range m.entries {
		labels[i] = e.Label
	}
	return labels
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.entries) }

// Match scans labels in insertion order and returns the pool of the first
// label contained in the supplied emotion text. Labels with empty pools are
// skipped so a later label can still match.
func (m *Mapping) Match(emotion string) ([]int, bool) {
	for _, e := range m.entries {
		if strings.Contains(emotion, e.Label) && len(e.IDs) > 0 {
			return e.IDs, true
		}
	}
	return nil, false
}
