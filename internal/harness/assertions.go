package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/fieldsync/internal/store"
)

// identifier matches the table and column names an assertion may reference.
// Identifiers are interpolated into SQL, so nothing else is accepted.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError describes a failed assertion together with the steps of
// the run, so a failing scenario can be read without re-running it.
type AssertionError struct {
	Kind  string
	Want  string
	Got   string
	Steps []Step
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed: want %s, got %s", e.Kind, e.Want, e.Got)
	if len(e.Steps) > 0 {
		b.WriteString("\nsteps:")
		for i, s := range e.Steps {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, s.Action)
			if s.Outcome != "" {
				fmt.Fprintf(&b, " -> %s", s.Outcome)
			}
		}
	}
	return b.String()
}

// AssertionContext gives store-backed assertions access to the run's store.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

type checker func(actx *AssertionContext, steps []Step, a Assertion) error

var checkers = map[string]checker{
	AssertTraceContains: func(_ *AssertionContext, steps []Step, a Assertion) error {
		return checkTraceContains(steps, a)
	},
	AssertTraceOrder: func(_ *AssertionContext, steps []Step, a Assertion) error {
		return checkTraceOrder(steps, a)
	},
	AssertTraceCount: func(_ *AssertionContext, steps []Step, a Assertion) error {
		return checkTraceCount(steps, a)
	},
	AssertFinalState: func(actx *AssertionContext, _ []Step, a Assertion) error {
		if actx == nil || actx.Store == nil {
			return fmt.Errorf("final_state on %s requires database context", a.Table)
		}
		return checkFinalState(actx.Ctx, actx.Store, a)
	},
	AssertRowCount: func(actx *AssertionContext, _ []Step, a Assertion) error {
		if actx == nil || actx.Store == nil {
			return fmt.Errorf("row_count on %s requires database context", a.Table)
		}
		return checkRowCount(actx.Ctx, actx.Store, a)
	},
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure, prefixed with the assertion's index.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	steps := Steps(result.Trace)

	var failures []string
	for i, a := range assertions {
		check, ok := checkers[a.Type]
		if !ok {
			failures = append(failures, fmt.Sprintf("assertions[%d]: unknown assertion type %q", i, a.Type))
			continue
		}
		if err := check(actx, steps, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// stepMatches reports whether s is an invocation of a's action whose args
// contain a's args and, when a names a case, whose outcome is that case.
func stepMatches(s Step, a Assertion) bool {
	if s.Action != a.Action {
		return false
	}
	if a.Case != "" && s.Outcome != a.Case {
		return false
	}
	return matchArgs(s.Args, a.Args)
}

func describeStep(a Assertion) string {
	desc := a.Action
	if len(a.Args) > 0 {
		desc += fmt.Sprintf(" with args %v", a.Args)
	}
	if a.Case != "" {
		desc += " ending " + a.Case
	}
	return desc
}

func checkTraceContains(steps []Step, a Assertion) error {
	for _, s := range steps {
		if stepMatches(s, a) {
			return nil
		}
	}
	return &AssertionError{
		Kind:  AssertTraceContains,
		Want:  describeStep(a),
		Got:   "no matching step",
		Steps: steps,
	}
}

// checkTraceOrder requires the first occurrence of each listed action to
// come after the first occurrence of the one listed before it. Other steps
// may appear in between.
func checkTraceOrder(steps []Step, a Assertion) error {
	first := make(map[string]int, len(a.Actions))
	for i, s := range steps {
		if _, seen := first[s.Action]; !seen {
			first[s.Action] = i
		}
	}

	prev := -1
	for i, action := range a.Actions {
		pos, ok := first[action]
		if !ok {
			return &AssertionError{
				Kind:  AssertTraceOrder,
				Want:  strings.Join(a.Actions, " < "),
				Got:   fmt.Sprintf("%s never ran", action),
				Steps: steps,
			}
		}
		if pos <= prev {
			return &AssertionError{
				Kind:  AssertTraceOrder,
				Want:  strings.Join(a.Actions, " < "),
				Got:   fmt.Sprintf("%s (step %d) ran before %s (step %d)", action, pos+1, a.Actions[i-1], prev+1),
				Steps: steps,
			}
		}
		prev = pos
	}
	return nil
}

func checkTraceCount(steps []Step, a Assertion) error {
	n := 0
	for _, s := range steps {
		if stepMatches(s, a) {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Kind:  AssertTraceCount,
			Want:  fmt.Sprintf("%d x %s", a.Count, describeStep(a)),
			Got:   fmt.Sprintf("%d", n),
			Steps: steps,
		}
	}
	return nil
}

// checkFinalState requires exactly one row of a.Table to match a.Where and
// that row to hold every value in a.Expect.
func checkFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	columns, rows, err := selectRows(ctx, st, a.Table, a.Where)
	if err != nil {
		return err
	}

	target := fmt.Sprintf("one %s row where %s", a.Table, describeWhere(a.Where))
	switch len(rows) {
	case 0:
		return &AssertionError{Kind: AssertFinalState, Want: target, Got: "no row"}
	case 1:
	default:
		return &AssertionError{Kind: AssertFinalState, Want: target, Got: fmt.Sprintf("%d rows", len(rows))}
	}

	row := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		row[col] = rows[0][i]
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, col := range keys {
		want := a.Expect[col]
		got, ok := row[col]
		if !ok {
			return &AssertionError{
				Kind: AssertFinalState,
				Want: fmt.Sprintf("column %s.%s", a.Table, col),
				Got:  fmt.Sprintf("columns %v", columns),
			}
		}
		if !columnEquals(want, got) {
			return &AssertionError{
				Kind: AssertFinalState,
				Want: fmt.Sprintf("%s.%s = %v", a.Table, col, want),
				Got:  fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// checkRowCount requires a.Table to hold exactly a.Count rows matching a.Where.
func checkRowCount(ctx context.Context, st *store.Store, a Assertion) error {
	_, rows, err := selectRows(ctx, st, a.Table, a.Where)
	if err != nil {
		return err
	}
	if len(rows) != a.Count {
		return &AssertionError{
			Kind: AssertRowCount,
			Want: fmt.Sprintf("%d %s row(s) where %s", a.Count, a.Table, describeWhere(a.Where)),
			Got:  fmt.Sprintf("%d", len(rows)),
		}
	}
	return nil
}

// selectRows reads every row of table matching where. Values are bound;
// the table and column names must be plain identifiers.
func selectRows(ctx context.Context, st *store.Store, table string, where map[string]interface{}) ([]string, [][]interface{}, error) {
	if !identifier.MatchString(table) {
		return nil, nil, fmt.Errorf("invalid table name %q", table)
	}
	cond, args, err := whereSQL(where)
	if err != nil {
		return nil, nil, err
	}

	query := "SELECT * FROM " + table
	if cond != "" {
		query += " WHERE " + cond
	}

	rows, err := st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	var out [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", table, err)
	}
	return columns, out, nil
}

// whereSQL renders where as "col = ? AND ..." with columns in sorted order.
func whereSQL(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	cols := make([]string, 0, len(where))
	for col := range where {
		if !identifier.MatchString(col) {
			return "", nil, fmt.Errorf("invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		conds[i] = col + " = ?"
		args[i] = bindValue(where[col])
	}
	return strings.Join(conds, " AND "), args, nil
}

// bindValue converts a YAML scalar into a driver value.
func bindValue(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, int, int64, float64, bool:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func describeWhere(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(any)"
	}
	cols := make([]string, 0, len(where))
	for col := range where {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s=%v", col, where[col])
	}
	return strings.Join(parts, " AND ")
}

// columnEquals compares a YAML value with a scanned SQLite value. INTEGER
// columns scan as int64, REAL as float64 and TEXT as string or []byte.
// Numbers and decimal strings compare by value, so `amount: 800` matches a
// REAL 800.0.
func columnEquals(want, got interface{}) bool {
	if b, ok := got.([]byte); ok {
		got = string(b)
	}
	if want == nil || got == nil {
		return want == nil && got == nil
	}

	if wb, ok := want.(bool); ok {
		switch g := got.(type) {
		case bool:
			return wb == g
		case int64:
			return wb == (g != 0)
		}
		return false
	}

	if ws, ok := want.(string); ok {
		if gs, ok := got.(string); ok {
			return ws == gs
		}
		wd, err := decimal.NewFromString(ws)
		gd, ok := numeric(got)
		return err == nil && ok && wd.Equal(gd)
	}

	wd, wok := numeric(want)
	gd, gok := numeric(got)
	if wok && gok {
		return wd.Equal(gd)
	}
	return reflect.DeepEqual(want, got)
}

func numeric(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	default:
		return decimal.Decimal{}, false
	}
}

// matchArgs reports whether actual is a map holding every expected key with
// an equal value. Extra keys in actual are ignored.
func matchArgs(actual interface{}, expected map[string]interface{}) bool {
	if len(expected) == 0 {
		return true
	}
	am, ok := actual.(map[string]interface{})
	if !ok {
		return false
	}
	for k, want := range expected {
		got, ok := am[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values after normalizing both to their JSON
// shape, so YAML ints match the float64 numbers of a result. Numbers and
// decimal strings compare by value.
func valuesEqual(actual, expected interface{}) bool {
	a, errA := normalize(actual)
	e, errE := normalize(expected)
	if errA != nil || errE != nil {
		return false
	}
	return jsonValuesEqual(a, e)
}

func jsonValuesEqual(a, e interface{}) bool {
	switch ev := e.(type) {
	case map[string]interface{}:
		am, ok := a.(map[string]interface{})
		if !ok || len(am) != len(ev) {
			return false
		}
		for k, v := range ev {
			if !jsonValuesEqual(am[k], v) {
				return false
			}
		}
		return true
	case []interface{}:
		as, ok := a.([]interface{})
		if !ok || len(as) != len(ev) {
			return false
		}
		for i := range ev {
			if !jsonValuesEqual(as[i], ev[i]) {
				return false
			}
		}
		return true
	case float64, string:
		if ad, ok := jsonDecimal(a); ok {
			if ed, ok := jsonDecimal(e); ok {
				return ad.Equal(ed)
			}
		}
	}
	return reflect.DeepEqual(a, e)
}

// jsonDecimal reads a JSON number or a decimal string.
func jsonDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// matchResult checks that a normalized step result contains every expected
// field (subset match at the top level).
func matchResult(actual interface{}, expected map[string]interface{}) error {
	actualMap, ok := actual.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected result fields %v, got %v", expected, actual)
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualVal, exists := actualMap[key]
		if !exists {
			return fmt.Errorf("result field %q missing", key)
		}
		if !valuesEqual(actualVal, expected[key]) {
			return fmt.Errorf("result field %q = %v, expected %v", key, actualVal, expected[key])
		}
	}
	return nil
}
