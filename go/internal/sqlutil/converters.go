package sqlutil

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and nullable column types

// ToNullJSON marshals v into a JSONB value, or NULL when valid is false
func ToNullJSON(v any, valid bool) (pqtype.NullRawMessage, error) {
	if !valid {
		return pqtype.NullRawMessage{Valid: false}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("marshal json column: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// FromNullJSON decodes a JSONB value into dst, leaving dst untouched for NULL
func FromNullJSON(val pqtype.NullRawMessage, dst any) error {
	if !val.Valid {
		return nil
	}
	if err := json.Unmarshal(val.RawMessage, dst); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}

// ToSqlInt32 converts a Go int for an INTEGER column, saturating instead of wrapping
func ToSqlInt32(val int) int32 {
	switch {
	case val > math.MaxInt32:
		return math.MaxInt32
	case val < math.MinInt32:
		return math.MinInt32
	}
	return int32(val)
}
