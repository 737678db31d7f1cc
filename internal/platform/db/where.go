package db

import (
	"fmt"
	"strings"
)

// Where accumulates AND-ed SQL conditions with positional arguments.
// Each %d in a condition is replaced by the placeholder number of the
// matching argument.
type Where struct {
	conds []string
	args  []interface{}
}

func (w *Where) Add(cond string, args ...interface{}) {
	nums := make([]interface{}, len(args))
	for i := range args {
		nums[i] = len(w.args) + i + 1
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, nums...))
	w.args = append(w.args, args...)
}

// Never makes the query match no rows.
func (w *Where) Never() {
	w.conds = append(w.conds, "FALSE")
}

func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []interface{} { return w.args }

// Page appends LIMIT and OFFSET placeholders and returns the clause with
// the full argument list.
func (w *Where) Page(limit, offset int) (string, []interface{}) {
	n := len(w.args)
	args := append(append([]interface{}{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}
