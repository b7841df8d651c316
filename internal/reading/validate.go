package reading

import "math"

// validValuePredicate excludes NULL, NaN and infinite values at the SQL
// level. SQLite stores NaN as NULL; `value = value` catches any NaN that
// reaches a row regardless, and the 9e999 literals overflow to ±Inf.
const validValuePredicate = "value IS NOT NULL AND value = value AND value != 9e999 AND value != -9e999"

// IsValidValue reports whether v may participate in aggregation:
// finite and not NaN. Invalid values are excluded from result sets,
// never coerced to zero.
func IsValidValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
