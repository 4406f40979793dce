package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxBreakupBucketsByCombinedRate(t *testing.T) {
	items := []Item{
		{BaseRate: 100, ReceivedQty: 2, CGST: 9, SGST: 9},
		{BaseRate: 50, ReceivedQty: 4, CGST: 2.5, SGST: 2.5},
		{BaseRate: 80, ReceivedQty: 1, IGST: 28},
	}
	b := ComputeTaxBreakup(items)

	assert.InDelta(t, 200.0, b.GST18.Taxable, 0.001)
	assert.InDelta(t, 36.0, b.GST18.Tax, 0.001)
	assert.InDelta(t, 200.0, b.GST5.Taxable, 0.001)
	assert.InDelta(t, 10.0, b.GST5.Tax, 0.001)
	assert.InDelta(t, 80.0, b.GST28.Taxable, 0.001)
	assert.InDelta(t, 22.4, b.GST28.Tax, 0.001)
	assert.Zero(t, b.GST12.Taxable)
}

func TestTaxBreakupExcludesUnknownRates(t *testing.T) {
	items := []Item{
		{BaseRate: 100, ReceivedQty: 1, CGST: 3, SGST: 3},
		{BaseRate: 100, ReceivedQty: 1},
	}
	b := ComputeTaxBreakup(items)

	assert.Zero(t, b.GST5.Taxable)
	assert.Zero(t, b.GST12.Taxable)
	assert.Zero(t, b.GST18.Taxable)
	assert.Zero(t, b.GST28.Taxable)
}

func TestTaxBreakupFreeQuantitiesCarryNoValue(t *testing.T) {
	items := []Item{
		{BaseRate: 100, ReceivedQty: 2, PhysicalFreeQty: 5, SchemeFreeQty: 3, CGST: 6, SGST: 6},
	}
	b := ComputeTaxBreakup(items)

	assert.InDelta(t, 200.0, b.GST12.Taxable, 0.001)
	assert.InDelta(t, 24.0, b.GST12.Tax, 0.001)
}

func TestInvoiceSummaryRounding(t *testing.T) {
	items := []Item{
		{BaseRate: 99.5, ReceivedQty: 1, MRP: 120, Amount: 99.5, CGST: 9, SGST: 9},
	}
	s := ComputeInvoiceSummary(items)

	assert.InDelta(t, 99.5, s.TaxableAmount, 0.001)
	assert.InDelta(t, 120.0, s.MRPValue, 0.001)
	assert.InDelta(t, 117.41, s.AmountAfterGST, 0.001)
	assert.InDelta(t, 117.0, s.InvoiceAmount, 0.001)
	assert.InDelta(t, -0.41, s.RoundAmount, 0.001)
}

func TestTotals(t *testing.T) {
	items := []Item{
		{BaseRate: 100, ReceivedQty: 2, CGST: 9, SGST: 9},
		{BaseRate: 50, ReceivedQty: 2, CGST: 2.5, SGST: 2.5},
	}
	sub, tax, grand := Totals(items)
	assert.InDelta(t, 300.0, sub, 0.001)
	assert.InDelta(t, 41.0, tax, 0.001)
	assert.InDelta(t, 341.0, grand, 0.001)
}
