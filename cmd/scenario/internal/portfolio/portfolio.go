// Package portfolio builds pricers from a YAML portfolio document.
package portfolio

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/morisk/bond"
	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/calendar"
	"github.com/meenmo/morisk/cds"
	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/option"
	"github.com/meenmo/morisk/pricer"
	"github.com/meenmo/morisk/swap"
	"github.com/meenmo/morisk/utils"
)

// Document is the YAML schema. Rates, spreads and yields are decimals.
//
//	curves:
//	  - name: KRW-IRS
//	    convention: yield
//	    day_count: ACT/365F
//	    quotes: [{tenor: 1Y, quote: 0.0335}, {tenor: 5Y, quote: 0.0318}]
//	swaps:
//	  - {name: IRS5Y, tenor_years: 5, fixed_frequency: 4, direction: PAY,
//	     fixed_rate: 0.032, notional: 1e10, curve: KRW-IRS}
type Document struct {
	Curves  []CurveSpec  `yaml:"curves"`
	Bonds   []BondSpec   `yaml:"bonds"`
	Swaps   []SwapSpec   `yaml:"swaps"`
	Options []OptionSpec `yaml:"options"`
	CDS     []CDSSpec    `yaml:"cds"`
}

type QuoteSpec struct {
	Tenor string  `yaml:"tenor"`
	Quote float64 `yaml:"quote"`
}

type CurveSpec struct {
	Name          string          `yaml:"name"`
	Product       string          `yaml:"product"`
	Convention    bump.Convention `yaml:"convention"`
	DayCount      string          `yaml:"day_count"`
	Recovery      float64         `yaml:"recovery"`
	RunningCoupon float64         `yaml:"running_coupon"`
	Quotes        []QuoteSpec     `yaml:"quotes"`
}

// BondSpec takes either a settlement date or a trade date plus a settlement
// lag in business days on the bond's calendar.
type BondSpec struct {
	Name           string  `yaml:"name"`
	Settlement     string  `yaml:"settlement"`
	TradeDate      string  `yaml:"trade_date"`
	SettlementDays int     `yaml:"settlement_days"`
	Maturity       string  `yaml:"maturity"`
	Coupon         float64 `yaml:"coupon"`
	Frequency      int     `yaml:"frequency"`
	Calendar       string  `yaml:"calendar"`
	Notional       float64 `yaml:"notional"`
	Yield          float64 `yaml:"yield"`
	Curve          string  `yaml:"curve"`
}

type SwapSpec struct {
	Name           string  `yaml:"name"`
	StartYears     float64 `yaml:"start_years"`
	TenorYears     float64 `yaml:"tenor_years"`
	FixedFrequency int     `yaml:"fixed_frequency"`
	Direction      string  `yaml:"direction"`
	FixedRate      float64 `yaml:"fixed_rate"`
	Notional       float64 `yaml:"notional"`
	FloatSpreadBP  float64 `yaml:"float_spread_bp"`
	Curve          string  `yaml:"curve"`
}

type OptionSpec struct {
	Name       string  `yaml:"name"`
	Kind       string  `yaml:"kind"`
	Forward    float64 `yaml:"forward"`
	Strike     float64 `yaml:"strike"`
	Volatility float64 `yaml:"volatility"`
	Rate       float64 `yaml:"rate"`
	Expiry     float64 `yaml:"expiry"`
	Notional   float64 `yaml:"notional"`
}

type CDSSpec struct {
	Name                    string  `yaml:"name"`
	TradeDate               string  `yaml:"trade_date"`
	Maturity                string  `yaml:"maturity"`
	Frequency               int     `yaml:"frequency"`
	Coupon                  float64 `yaml:"coupon"`
	Notional                float64 `yaml:"notional"`
	DiscountRate            float64 `yaml:"discount_rate"`
	Recovery                float64 `yaml:"recovery"`
	IncludeAccruedOnDefault bool    `yaml:"include_accrued_on_default"`
	Curve                   string  `yaml:"curve"`
}

// Portfolio is the set of pricers built from a document, in document order
// (bonds, swaps, options, CDS).
type Portfolio struct {
	Pricers []pricer.Pricer
}

// Find returns the pricer with the given name.
func (p *Portfolio) Find(name string) (pricer.Pricer, bool) {
	for _, pr := range p.Pricers {
		if pr.Name() == name {
			return pr, true
		}
	}
	return nil, false
}

// Load reads and builds a portfolio file.
func Load(path string, reg *bump.Registry, cc curve.Config) (*Portfolio, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	return Parse(raw, reg, cc)
}

// Parse builds a portfolio. Every pricer gets its own copy of the curves it
// references, so bumping one pricer's tenors never moves another's.
func Parse(raw []byte, reg *bump.Registry, cc curve.Config) (*Portfolio, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse portfolio: %w", err)
	}
	b := builder{reg: reg, cc: cc, curves: make(map[string]CurveSpec, len(doc.Curves))}
	for _, c := range doc.Curves {
		if _, dup := b.curves[c.Name]; dup {
			return nil, fmt.Errorf("duplicate curve %q", c.Name)
		}
		b.curves[c.Name] = c
	}

	out := &Portfolio{}
	add := func(p pricer.Pricer, err error) error {
		if err != nil {
			return err
		}
		if _, dup := out.Find(p.Name()); dup {
			return fmt.Errorf("duplicate pricer %q", p.Name())
		}
		out.Pricers = append(out.Pricers, p)
		return nil
	}
	for _, s := range doc.Bonds {
		if err := add(b.bond(s)); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Swaps {
		if err := add(b.swap(s)); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Options {
		if err := add(b.option(s)); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.CDS {
		if err := add(b.cds(s)); err != nil {
			return nil, err
		}
	}
	if len(out.Pricers) == 0 {
		return nil, fmt.Errorf("portfolio has no instruments")
	}
	return out, nil
}

type builder struct {
	reg    *bump.Registry
	cc     curve.Config
	curves map[string]CurveSpec
}

func (b builder) curve(name string) (*curve.Curve, error) {
	spec, ok := b.curves[name]
	if !ok {
		return nil, fmt.Errorf("unknown curve %q", name)
	}
	h, err := b.reg.Resolve(spec.Convention, bump.RefData{
		Recovery:      spec.Recovery,
		DayCount:      spec.DayCount,
		RunningCoupon: spec.RunningCoupon,
	})
	if err != nil {
		return nil, fmt.Errorf("curve %s: %w", name, err)
	}
	tenors := make([]*curve.Tenor, 0, len(spec.Quotes))
	for _, q := range spec.Quotes {
		t, err := curve.NewTenor(q.Tenor, spec.Product, q.Quote, h)
		if err != nil {
			return nil, fmt.Errorf("curve %s: %w", name, err)
		}
		tenors = append(tenors, t)
	}
	return curve.New(name, tenors)
}

func (b builder) bond(s BondSpec) (pricer.Pricer, error) {
	cal := calendar.CalendarID(strings.ToUpper(s.Calendar))
	settle, err := bondSettlement(s, cal)
	if err != nil {
		return nil, fmt.Errorf("bond %s: %w", s.Name, err)
	}
	mat, err := utils.ParseDate(s.Maturity)
	if err != nil {
		return nil, fmt.Errorf("bond %s: %w", s.Name, err)
	}
	p := bond.Params{
		Name:        s.Name,
		Settlement:  settle,
		Maturity:    mat,
		CouponRate:  s.Coupon,
		Frequency:   s.Frequency,
		Calendar:    cal,
		Notional:    s.Notional,
		Yield:       s.Yield,
		CurveConfig: b.cc,
	}
	if s.Curve != "" {
		if p.Curve, err = b.curve(s.Curve); err != nil {
			return nil, fmt.Errorf("bond %s: %w", s.Name, err)
		}
	}
	return bond.New(p)
}

func bondSettlement(s BondSpec, cal calendar.CalendarID) (time.Time, error) {
	if s.Settlement != "" {
		return utils.ParseDate(s.Settlement)
	}
	if s.TradeDate == "" {
		return time.Time{}, fmt.Errorf("settlement or trade_date is required")
	}
	trade, err := utils.ParseDate(s.TradeDate)
	if err != nil {
		return time.Time{}, err
	}
	return calendar.AddBusinessDays(cal, trade, s.SettlementDays), nil
}

func (b builder) swap(s SwapSpec) (pricer.Pricer, error) {
	dir, err := swap.ParsePosition(s.Direction)
	if err != nil {
		return nil, fmt.Errorf("swap %s: %w", s.Name, err)
	}
	c, err := b.curve(s.Curve)
	if err != nil {
		return nil, fmt.Errorf("swap %s: %w", s.Name, err)
	}
	return swap.New(swap.Params{
		Name:           s.Name,
		StartYears:     s.StartYears,
		TenorYears:     s.TenorYears,
		FixedFrequency: s.FixedFrequency,
		Direction:      dir,
		FixedRate:      s.FixedRate,
		Notional:       s.Notional,
		FloatSpreadBP:  s.FloatSpreadBP,
		Curve:          c,
		CurveConfig:    b.cc,
	})
}

func (b builder) option(s OptionSpec) (pricer.Pricer, error) {
	kind, err := option.ParseKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("option %s: %w", s.Name, err)
	}
	return option.New(option.Params{
		Name:       s.Name,
		Kind:       kind,
		Forward:    s.Forward,
		Strike:     s.Strike,
		Volatility: s.Volatility,
		Rate:       s.Rate,
		Expiry:     s.Expiry,
		Notional:   s.Notional,
	})
}

func (b builder) cds(s CDSSpec) (pricer.Pricer, error) {
	dates := make([]time.Time, 2)
	for i, v := range []string{s.TradeDate, s.Maturity} {
		d, err := utils.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("cds %s: %w", s.Name, err)
		}
		dates[i] = d
	}
	c, err := b.curve(s.Curve)
	if err != nil {
		return nil, fmt.Errorf("cds %s: %w", s.Name, err)
	}
	freq := s.Frequency
	if freq == 0 {
		freq = 4
	}
	return cds.New(cds.Params{
		Name:         s.Name,
		TradeDate:    dates[0],
		Maturity:     dates[1],
		Frequency:    freq,
		Coupon:       s.Coupon,
		Notional:     s.Notional,
		DiscountRate: s.DiscountRate,
		Recovery:     s.Recovery,
		Curve:        c,
		Options:      cds.Options{IncludeAccruedOnDefault: s.IncludeAccruedOnDefault},
	})
}
