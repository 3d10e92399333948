package graph

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/forgeworks/conductor/pkg/models"
)

// depRef is a single unresolved dependency reference: either a numeric task
// ID or a task-number string such as "2.1.1".
type depRef struct {
	id     int64
	number string
}

// String renders the reference for log messages.
func (r depRef) String() string {
	if r.number != "" {
		return r.number
	}
	return strconv.FormatInt(r.id, 10)
}

// resolve maps the reference to a task ID within the snapshot. Numeric
// references resolve by ID; everything else resolves via the task-number
// index.
func (r depRef) resolve(nodes map[int64]*models.Task, byNumber map[string]int64) (int64, bool) {
	if r.number != "" {
		id, ok := byNumber[r.number]
		return id, ok
	}
	_, ok := nodes[r.id]
	return r.id, ok
}

// parseDependsOn parses the raw depends_on encoding used at rest. The grammar
// is deliberately narrow:
//
//	""            -> no dependencies
//	"[3, 5]"      -> JSON array of task IDs
//	"1,2,3"       -> comma-separated task IDs
//	"2.1.1"       -> a single task-number reference
//
// Malformed entries are dropped rather than failing the build; a reference
// that parses but does not resolve is handled by the caller.
func parseDependsOn(raw string) []depRef {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil
		}
		refs := make([]depRef, 0, len(ids))
		for _, id := range ids {
			refs = append(refs, depRef{id: id})
		}
		return refs
	}

	if strings.Contains(raw, ",") {
		var refs []depRef
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				continue
			}
			refs = append(refs, depRef{id: id})
		}
		return refs
	}

	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return []depRef{{id: id}}
	}

	// A bare task-number reference ("2.1.1").
	return []depRef{{number: raw}}
}
