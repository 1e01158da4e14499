package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/picoparse/internal/ir"
)

// marshalResult converts a result value to canonical JSON TEXT for storage.
// A nil value is stored as SQL NULL.
func marshalResult(v ir.Value) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalResult parses stored JSON TEXT back into a value.
// Large integers survive because ir.UnmarshalValue decodes via json.Number.
func unmarshalResult(data sql.NullString) (ir.Value, error) {
	if !data.Valid {
		return nil, nil
	}
	v, err := ir.UnmarshalValue([]byte(data.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return v, nil
}
