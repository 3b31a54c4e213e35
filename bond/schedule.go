package bond

import (
	"fmt"
	"time"

	"github.com/meenmo/morisk/calendar"
	"github.com/meenmo/morisk/utils"
)

// Cashflow is one payment per 100 face. The final coupon date carries the
// redemption in Principal.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 { return c.Coupon + c.Principal }

// GenerateCashflows builds the cashflows remaining after settlement for a
// bullet bond, rolling back from maturity by coupon periods. Payment dates are
// Modified Following adjusted on cal. Also returns the unadjusted previous
// coupon date used for accrual.
//
// couponRate is a decimal (0.025 == 2.5%); amounts are per 100 face.
func GenerateCashflows(settlement, maturity time.Time, couponRate float64, frequency int, cal calendar.CalendarID) ([]Cashflow, time.Time, error) {
	if frequency <= 0 || 12%frequency != 0 {
		return nil, time.Time{}, fmt.Errorf("GenerateCashflows: unsupported frequency %d", frequency)
	}
	if !maturity.After(settlement) {
		return nil, time.Time{}, fmt.Errorf("GenerateCashflows: maturity (%s) must be after settlement (%s)", maturity.Format(utils.DateLayout), settlement.Format(utils.DateLayout))
	}

	months := 12 / frequency
	coupon := 100 * couponRate / float64(frequency)

	var unadjusted []time.Time
	prev := maturity
	for k := 0; prev.After(settlement); k++ {
		unadjusted = append(unadjusted, prev)
		prev = utils.AddMonth(maturity, -months*(k+1))
	}

	cfs := make([]Cashflow, 0, len(unadjusted))
	for i := len(unadjusted) - 1; i >= 0; i-- {
		cf := Cashflow{Date: calendar.Adjust(cal, unadjusted[i]), Coupon: coupon}
		if i == 0 {
			cf.Principal = 100
		}
		cfs = append(cfs, cf)
	}
	return cfs, prev, nil
}
