package records

import (
	"cmp"
	"slices"
	"strings"
)

// ProcessTable resolves free-text process labels to canonical names.
// Lookups ignore case and surrounding or repeated whitespace.
type ProcessTable struct {
	lookup   map[string]string
	names    []string
	prefixes []lotPrefix
}

type lotPrefix struct {
	prefix  string
	process string
}

// NewProcessTable builds a table from canonical names to aliases. Each
// canonical name is also an alias of itself. lotPrefixes maps lot number
// prefixes to the process they identify; it may be nil.
func NewProcessTable(processes map[string][]string, lotPrefixes map[string]string) *ProcessTable {
	t := &ProcessTable{lookup: make(map[string]string)}
	for prefix, process := range lotPrefixes {
		t.prefixes = append(t.prefixes, lotPrefix{
			prefix:  strings.ToUpper(strings.TrimSpace(prefix)),
			process: strings.TrimSpace(process),
		})
	}
	slices.SortFunc(t.prefixes, func(a, b lotPrefix) int {
		if c := cmp.Compare(len(b.prefix), len(a.prefix)); c != 0 {
			return c
		}
		return cmp.Compare(a.prefix, b.prefix)
	})

	for name, aliases := range processes {
		canonical := strings.TrimSpace(name)
		t.names = append(t.names, canonical)
		t.lookup[normalizeLabel(canonical)] = canonical
		for _, alias := range aliases {
			t.lookup[normalizeLabel(alias)] = canonical
		}
	}
	slices.Sort(t.names)
	return t
}

// Canonical returns the canonical name for raw. When raw is unknown it
// returns raw trimmed and false.
func (t *ProcessTable) Canonical(raw string) (string, bool) {
	if name, ok := t.lookup[normalizeLabel(raw)]; ok {
		return name, true
	}
	return strings.TrimSpace(raw), false
}

// FromLot returns the process identified by the longest configured
// prefix of lot, compared case-insensitively.
func (t *ProcessTable) FromLot(lot string) (string, bool) {
	lot = strings.ToUpper(strings.TrimSpace(lot))
	for _, p := range t.prefixes {
		if p.prefix != "" && strings.HasPrefix(lot, p.prefix) {
			return p.process, true
		}
	}
	return "", false
}

// Names lists the canonical process names in sorted order.
func (t *ProcessTable) Names() []string {
	return slices.Clone(t.names)
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
