package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Converters from driver-native row values to domain types. The embedded
// driver returns TEXT/INTEGER, the networked one time.Time and numeric
// strings; callers go through these instead of type-asserting.

const timeLayout = time.RFC3339Nano

// bindLayout keeps a fixed fractional width so stored text timestamps
// order lexicographically in the embedded backend
const bindLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Str returns the column as a string, empty when NULL
func Str(row Row, col string) string {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// I64 returns the column as an int64, zero when NULL
func I64(row Row, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return 0
		}
		return d.IntPart()
	default:
		return 0
	}
}

// Boolean returns the column as a bool; the embedded backend stores 0/1
func Boolean(row Row, col string) bool {
	switch v := row[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		return v == "1" || v == "true" || v == "t"
	default:
		return false
	}
}

// Dec returns the column as a decimal, zero when NULL or unparseable
func Dec(row Row, col string) decimal.Decimal {
	switch v := row[col].(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	default:
		return decimal.Zero
	}
}

// Time returns the column as a time.Time, zero time when NULL
func Time(row Row, col string) time.Time {
	switch v := row[col].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(timeLayout, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

// TimePtr returns the column as a *time.Time, nil when NULL
func TimePtr(row Row, col string) *time.Time {
	if row[col] == nil {
		return nil
	}
	t := Time(row, col)
	if t.IsZero() {
		return nil
	}
	return &t
}

// ID returns the column as a UUID, the nil UUID when absent or invalid
func ID(row Row, col string) uuid.UUID {
	id, err := uuid.Parse(Str(row, col))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// IDPtr returns the column as a *uuid.UUID, nil when NULL
func IDPtr(row Row, col string) *uuid.UUID {
	if row[col] == nil {
		return nil
	}
	id, err := uuid.Parse(Str(row, col))
	if err != nil {
		return nil
	}
	return &id
}

// BindTime normalizes a timestamp for storage in either backend
func BindTime(t time.Time) string {
	return t.UTC().Format(bindLayout)
}

// BindTimePtr normalizes an optional timestamp, passing NULL through
func BindTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return BindTime(*t)
}

// BindID normalizes a UUID for storage
func BindID(id uuid.UUID) string { return id.String() }

// BindIDPtr normalizes an optional UUID, passing NULL through
func BindIDPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

// BindDec normalizes a decimal for storage
func BindDec(d decimal.Decimal) string { return d.String() }
