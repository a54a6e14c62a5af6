package model

import (
	"fmt"
	"strings"
)

// AssetKind selects the pricing strategy of a ticker. It is resolved once when a
// transaction is ingested and carried through reconstruction and valuation.
type AssetKind int

const (
	KindUnknown AssetKind = iota
	KindEquity
	KindBond
	KindCash
)

// CashTicker is the external ticker key used for base-currency cash balances.
const CashTicker = "CASH"

// BondFamilyYears maps a treasury bond family prefix to the number of coupon years it carries.
var BondFamilyYears = map[string]int{
	"EDO": 10,
	"COI": 4,
	"ROS": 6,
	"ROD": 12,
}

// ResolveKind derives the asset kind from an external ticker key.
func ResolveKind(ticker string) AssetKind {
	ticker = strings.TrimSpace(ticker)
	switch {
	case ticker == "":
		return KindUnknown
	case strings.EqualFold(ticker, CashTicker):
		return KindCash
	case IsBondTicker(ticker):
		return KindBond
	default:
		return KindEquity
	}
}

// IsBondTicker reports whether ticker belongs to a known bond family.
func IsBondTicker(ticker string) bool {
	_, ok := BondFamily(ticker)
	return ok
}

// BondFamily returns the family prefix of a bond series such as EDO0132.
func BondFamily(series string) (string, bool) {
	if len(series) < 3 {
		return "", false
	}
	prefix := strings.ToUpper(series[:3])
	if _, ok := BondFamilyYears[prefix]; !ok {
		return "", false
	}
	return prefix, true
}

func (k AssetKind) String() string {
	switch k {
	case KindEquity:
		return "equity"
	case KindBond:
		return "bond"
	case KindCash:
		return "cash"
	default:
		return "unknown"
	}
}

// ParseAssetKind is the inverse of String.
func ParseAssetKind(s string) (AssetKind, error) {
	switch s {
	case "equity":
		return KindEquity, nil
	case "bond":
		return KindBond, nil
	case "cash":
		return KindCash, nil
	case "unknown", "":
		return KindUnknown, nil
	}
	return KindUnknown, fmt.Errorf("unknown asset kind %q", s)
}

// MarshalText encodes the kind by name.
func (k AssetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *AssetKind) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
