package connector

import (
	"strings"

	"github.com/redartera/flytekit/pkg/flog"
)

// StatusTable maps a backend's raw status vocabulary onto canonical phases.
// The mapping is explicit data, not heuristics: a token is either in the
// table or it gets the fallback phase. New backend tokens are added by
// extending the table, never by string matching in control flow.
type StatusTable struct {
	mapping  map[string]Phase
	fallback Phase
	log      *flog.Logger
}

// NewStatusTable builds a table from phase buckets. Lookup is
// case-insensitive; tokens are stored lowercased.
func NewStatusTable(fallback Phase, buckets map[Phase][]string, log *flog.Logger) StatusTable {
	if log == nil {
		log = flog.NewDefault()
	}
	m := make(map[string]Phase)
	for phase, tokens := range buckets {
		for _, tok := range tokens {
			m[strings.ToLower(tok)] = phase
		}
	}
	return StatusTable{mapping: m, fallback: fallback, log: log}
}

// Normalize is total over all possible backend strings: unmapped tokens map
// to the fallback phase and are logged for operator visibility rather than
// raising.
func (t StatusTable) Normalize(raw string) Phase {
	key := strings.ToLower(strings.TrimSpace(raw))
	if phase, ok := t.mapping[key]; ok {
		return phase
	}
	t.log.Warn("unmapped backend status", "status", raw, "fallback", string(t.fallback))
	return t.fallback
}
