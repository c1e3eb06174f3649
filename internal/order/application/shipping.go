package application

import "github.com/shopspring/decimal"

// ShippingCalculator 按小计计算运费,达到免邮门槛(含)时免运费
type ShippingCalculator struct {
	freeThreshold decimal.Decimal
	fee           decimal.Decimal
}

func NewShippingCalculator(freeThreshold, fee decimal.Decimal) *ShippingCalculator {
	return &ShippingCalculator{freeThreshold: freeThreshold, fee: fee}
}

func (c *ShippingCalculator) Cost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(c.freeThreshold) {
		return decimal.Zero
	}
	return c.fee
}
