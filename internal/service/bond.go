package service

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
)

// BondFaceValue is the nominal value of one treasury bond unit.
const BondFaceValue = 100

var (
	decOne        = decimal.NewFromInt(1)
	decDaysInYear = decimal.NewFromInt(365)
)

// BondUnitPrice returns the value of one bond unit daysHeld days after purchase.
//
// The face value is compounded through each full elapsed year at that year's
// coupon, rounding to 2 dp after every year. The remaining days earn the next
// year's coupon pro rata (days/365), rounded to 2 dp again. A year is always 365
// days regardless of leap years.
//
// rateFor receives 1-based year indexes. A negative daysHeld returns
// apperrors.ErrScheduleInvalidState; a rate lookup error is returned as is.
func BondUnitPrice(daysHeld int, rateFor func(yearIndex int) (float64, error)) (float64, error) {
	if daysHeld < 0 {
		return 0, apperrors.ErrScheduleInvalidState
	}

	years := daysHeld / 365
	remainder := daysHeld % 365

	value := decimal.NewFromInt(BondFaceValue)
	for year := 1; year <= years; year++ {
		rate, err := rateFor(year)
		if err != nil {
			return 0, err
		}
		value = value.Mul(decOne.Add(decimal.NewFromFloat(rate))).Round(RoundingPrecision)
	}

	if remainder != 0 {
		rate, err := rateFor(years + 1)
		if err != nil {
			return 0, err
		}
		accrued := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(int64(remainder))).Div(decDaysInYear)
		value = value.Mul(decOne.Add(accrued)).Round(RoundingPrecision)
	}

	return value.InexactFloat64(), nil
}
