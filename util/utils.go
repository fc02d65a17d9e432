package util

import (
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"
)

// StrNotSet is a readability helper for config validation.
func StrNotSet(value string) bool {
	return len(value) == 0
}

// ToNumeric converts an exact decimal into the pgtype numeric used for
// database columns.
func ToNumeric(d decimal.Decimal) pgtype.Numeric {
	num := pgtype.Numeric{}
	if err := num.Set(d.String()); err != nil {
		num.Status = pgtype.Null
	}
	return num
}

// FromNumeric converts a database numeric back into an exact decimal.
// Null or unparsable values come back as zero.
func FromNumeric(num pgtype.Numeric) decimal.Decimal {
	if num.Status != pgtype.Present || num.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(num.Int, num.Exp)
}

// NumericToString renders a database numeric for display.
func NumericToString(num pgtype.Numeric) string {
	return fmt.Sprint(FromNumeric(num))
}
