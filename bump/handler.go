package bump

import (
	"fmt"
	"strings"
)

// Convention identifies a market quoting convention.
type Convention string

const (
	CreditSpread Convention = "CREDIT_SPREAD"
	Price        Convention = "PRICE"
	Yield        Convention = "YIELD"
	Upfront      Convention = "UPFRONT"
)

// ParseConvention normalizes a convention name. Built-in names match
// case-insensitively and ignore separators ("credit-spread", "CreditSpread").
// Other names are upper-cased and returned as-is so custom registrations resolve.
func ParseConvention(s string) (Convention, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownConvention)
	}
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(up)
	switch key {
	case "CREDITSPREAD", "SPREAD":
		return CreditSpread, nil
	case "PRICE":
		return Price, nil
	case "YIELD", "RATE":
		return Yield, nil
	case "UPFRONT":
		return Upfront, nil
	}
	return Convention(up), nil
}

// UnmarshalText lets conventions be read from YAML/JSON documents.
func (c *Convention) UnmarshalText(b []byte) error {
	v, err := ParseConvention(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Quoter is a holder of a single mutable quote, typically a curve tenor.
type Quoter interface {
	Quote() float64
	SetQuote(float64)
}

// RefData carries the auxiliary reference data a handler may need to
// interpret its quote. The bump arithmetic itself never reads it.
type RefData struct {
	Recovery      float64 // decimal, e.g. 0.4
	DayCount      string  // e.g. "ACT/360"
	RunningCoupon float64 // decimal, for upfront-quoted contracts
}

// Handler encodes one quoting convention and its bump arithmetic.
type Handler interface {
	Convention() Convention
	// Unit converts an absolute bump size into quote units (1e-4 for basis points).
	Unit() float64
	// DisplayScale converts an applied amount into the reporting unit.
	DisplayScale() float64
	RefData() RefData
	// BumpQuote mutates q and returns the applied amount (new - old).
	BumpQuote(q Quoter, size float64, flags Flags) (float64, error)
}

type handler struct {
	conv    Convention
	unit    float64
	display float64
	ref     RefData
}

func (h handler) Convention() Convention { return h.conv }
func (h handler) Unit() float64          { return h.unit }
func (h handler) DisplayScale() float64  { return h.display }
func (h handler) RefData() RefData       { return h.ref }

func (h handler) BumpQuote(q Quoter, size float64, flags Flags) (float64, error) {
	old := q.Quote()
	next, err := Apply(old, size, h.unit, flags)
	if err != nil {
		return 0, fmt.Errorf("%s bump: %w", h.conv, err)
	}
	q.SetQuote(next)
	return next - old, nil
}

// Display scales an applied amount for reporting (e.g. decimal spread to bp).
func Display(h Handler, applied float64) float64 {
	return applied * h.DisplayScale()
}

// NewCreditSpreadHandler handles par or conventional spreads quoted as decimals
// and bumped in basis points.
func NewCreditSpreadHandler(ref RefData) Handler {
	return handler{conv: CreditSpread, unit: 1e-4, display: 1e4, ref: ref}
}

// NewYieldHandler handles yields and par rates quoted as decimals, bumped in basis points.
func NewYieldHandler(ref RefData) Handler {
	return handler{conv: Yield, unit: 1e-4, display: 1e4, ref: ref}
}

// NewPriceHandler handles prices; absolute bumps are in price points.
func NewPriceHandler(ref RefData) Handler {
	return handler{conv: Price, unit: 1, display: 1, ref: ref}
}

// NewUpfrontHandler handles upfront fees quoted as a decimal fraction of
// notional; absolute bumps are in upfront points (1%).
func NewUpfrontHandler(ref RefData) Handler {
	return handler{conv: Upfront, unit: 1e-2, display: 1e2, ref: ref}
}
