package service

import (
	"github.com/shopspring/decimal"
)

// RoundingPrecision is the number of decimal places kept for money values.
const RoundingPrecision = 2

// round rounds a float64 value to two decimal places, half away from zero.
// This function is used throughout the service layer to ensure consistent rounding of monetary
// values in persisted series and API responses.
//
// Example:
//
//	round(123.456789)  // returns 123.46
//	round(1.005)       // returns 1.01
//	round(-0.125)      // returns -0.13
func round(value float64) float64 {
	return decimal.NewFromFloat(value).Round(RoundingPrecision).InexactFloat64()
}
