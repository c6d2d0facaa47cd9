package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is the cost of staying from checkIn to checkOut at rate per
// night.  The multiplication is exact; no rounding happens here.
func Price(rate decimal.Decimal, checkIn, checkOut time.Time) decimal.Decimal {
	nights := daysBetween(Date(checkIn), Date(checkOut))
	return rate.Mul(decimal.NewFromInt(int64(nights)))
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string { return d.StringFixed(2) }
