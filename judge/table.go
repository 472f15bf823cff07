package judge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Kind tags the scalar variants a result cell can hold. Keeping the variant
// explicit (instead of comparing raw driver values) is what makes the
// coercion rules below deterministic across drivers and formatters.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindReal
	KindText
)

// Value is a single result cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Text string
}

func NullValue() Value          { return Value{Kind: KindNull} }
func IntValue(i int64) Value    { return Value{Kind: KindInt, Int: i} }
func RealValue(f float64) Value { return Value{Kind: KindReal, Real: f} }
func TextValue(s string) Value  { return Value{Kind: KindText, Text: s} }

// valueFromDriver converts whatever the database driver produced into a
// tagged Value. Unknown types degrade to their printed form.
func valueFromDriver(v interface{}) Value {
	switch v := v.(type) {
	case nil:
		return NullValue()
	case int64:
		return IntValue(v)
	case float64:
		return RealValue(v)
	case bool:
		if v {
			return IntValue(1)
		}
		return IntValue(0)
	case []byte:
		return TextValue(string(v))
	case string:
		return TextValue(v)
	case time.Time:
		return TextValue(v.Format("2006-01-02 15:04:05"))
	default:
		return TextValue(fmt.Sprint(v))
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'f', -1, 64)
	default:
		return v.Text
	}
}

const realPrecision = 6

func roundReal(f float64) float64 {
	scale := math.Pow10(realPrecision)
	return math.Round(f*scale) / scale
}

// nullLike reports whether a trimmed string is one of the placeholder
// spellings different engines and formatters use for missing values.
func nullLike(s string) bool {
	switch strings.ToLower(s) {
	case "", "none", "null", "nan":
		return true
	}
	return false
}

// canonical maps a value onto its comparison form: reals are rounded to six
// decimals and collapse to ints when integral, strings are trimmed, numeric
// strings are parsed, and null spellings become Null. The rule is explicit
// parse-or-keep: a string that fails both numeric parses stays text.
func (v Value) canonical() Value {
	switch v.Kind {
	case KindNull, KindInt:
		return v
	case KindReal:
		if math.IsNaN(v.Real) {
			return NullValue()
		}
		r := roundReal(v.Real)
		if r == math.Trunc(r) && math.Abs(r) < 1<<53 {
			return IntValue(int64(r))
		}
		return RealValue(r)
	default:
		s := strings.TrimSpace(v.Text)
		if nullLike(s) {
			return NullValue()
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return RealValue(f).canonical()
		}
		return TextValue(s)
	}
}

func (v Value) isNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindReal
}

func (v Value) asReal() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Real
}

// compareValues orders canonical values: nulls first, then numerics (compared
// numerically across int/real), then text. The ordering only exists to make
// the multiset comparison order-independent, so the cross-kind ranking is a
// total order rather than anything semantically meaningful.
func compareValues(a, b Value) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return ra - rb
	}
	switch {
	case a.Kind == KindNull:
		return 0
	case a.isNumeric():
		fa, fb := a.asReal(), b.asReal()
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return 0
	default:
		return strings.Compare(a.Text, b.Text)
	}
}

func kindRank(v Value) int {
	switch {
	case v.Kind == KindNull:
		return 0
	case v.isNumeric():
		return 1
	default:
		return 2
	}
}

// key is the multiset hash of a canonical value. Ints and integral reals
// share a representation so "12", 12 and 12.0 land on the same key.
func (v Value) key() string {
	switch v.Kind {
	case KindNull:
		return "\x00"
	case KindInt:
		return "n" + strconv.FormatInt(v.Int, 10)
	case KindReal:
		return "n" + strconv.FormatFloat(v.Real, 'f', -1, 64)
	default:
		return "t" + v.Text
	}
}

// ResultTable is the tabular output of one statement: ordered named columns
// and rows of scalar values. Row order carries no meaning for grading.
type ResultTable struct {
	Columns []string
	Rows    [][]Value
}

// queryTable executes a single statement and materializes its result. The
// statement runs inside a transaction that is always rolled back, so a
// failed execution can never leave session state behind to poison the next
// call on the same pool.
func queryTable(ctx context.Context, db *sqlx.DB, statement string) (*ResultTable, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryxContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	table := &ResultTable{Columns: columns}
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		row := make([]Value, len(raw))
		for i, cell := range raw {
			row[i] = valueFromDriver(cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}

// Canonical returns the comparison form of the table: column names trimmed
// and sorted lexicographically, every value canonicalized, rows sorted
// ascending by full tuple with a stable sort.
func (t *ResultTable) Canonical() *ResultTable {
	order := make([]int, len(t.Columns))
	for i := range order {
		order[i] = i
	}
	trimmed := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		trimmed[i] = strings.TrimSpace(c)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return trimmed[order[i]] < trimmed[order[j]]
	})

	canon := &ResultTable{Columns: make([]string, len(order))}
	for i, src := range order {
		canon.Columns[i] = trimmed[src]
	}
	canon.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]Value, len(order))
		for i, src := range order {
			out[i] = row[src].canonical()
		}
		canon.Rows[r] = out
	}
	sort.SliceStable(canon.Rows, func(i, j int) bool {
		return compareRows(canon.Rows[i], canon.Rows[j]) < 0
	})
	return canon
}

func compareRows(a, b []Value) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

// Project returns a copy of the table restricted to the named columns,
// matched by trimmed name against the table's own trimmed column names.
func (t *ResultTable) Project(columns []string) *ResultTable {
	index := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		name := strings.TrimSpace(c)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	var keep []int
	out := &ResultTable{}
	for _, c := range columns {
		if i, ok := index[strings.TrimSpace(c)]; ok {
			keep = append(keep, i)
			out.Columns = append(out.Columns, t.Columns[i])
		}
	}
	out.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		projected := make([]Value, len(keep))
		for i, src := range keep {
			projected[i] = row[src]
		}
		out.Rows[r] = projected
	}
	return out
}

func rowKey(row []Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.key()
	}
	return strings.Join(parts, "\x1f")
}

// rowMultiset counts canonical rows by their string key. String keys work
// for every scalar kind, so there is no separate fallback comparison path.
func rowMultiset(t *ResultTable) map[string]int {
	counts := make(map[string]int, len(t.Rows))
	for _, row := range t.Rows {
		counts[rowKey(row)]++
	}
	return counts
}

func multisetsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}

// multisetOverlap is the size of the multiset intersection: duplicate rows
// count up to the smaller multiplicity on each side.
func multisetOverlap(a, b map[string]int) int {
	total := 0
	for k, n := range a {
		if m := b[k]; m > 0 {
			if m < n {
				total += m
			} else {
				total += n
			}
		}
	}
	return total
}

// tablesEqual compares two canonical tables by labels and values.
func tablesEqual(a, b *ResultTable) bool {
	if len(a.Columns) != len(b.Columns) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for r := range a.Rows {
		if compareRows(a.Rows[r], b.Rows[r]) != 0 {
			return false
		}
	}
	return true
}

func sameShape(a, b *ResultTable) bool {
	return len(a.Columns) == len(b.Columns) && len(a.Rows) == len(b.Rows)
}

// commonColumns lists the trimmed column names present in both tables, in
// the candidate's column order, without duplicates.
func commonColumns(candidate, reference *ResultTable) []string {
	ref := make(map[string]bool, len(reference.Columns))
	for _, c := range reference.Columns {
		ref[strings.TrimSpace(c)] = true
	}
	var common []string
	seen := make(map[string]bool)
	for _, c := range candidate.Columns {
		name := strings.TrimSpace(c)
		if ref[name] && !seen[name] {
			seen[name] = true
			common = append(common, name)
		}
	}
	return common
}
