package postgres

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// whereBuilder accumulates AND-ed conditions and their positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

// arg registers v and returns its placeholder.
func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// add appends a condition. Use arg to build its placeholders first.
func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

// clause renders " WHERE a AND b", or "" with no conditions.
func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// likePattern turns free-text search input into an ILIKE substring pattern,
// escaping the LIKE wildcards.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

// uuidArray renders ids as a PostgreSQL array literal for use with $n::uuid[].
func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
