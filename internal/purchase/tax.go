package purchase

import "math"

// ComputeTaxBreakup buckets each line's taxable amount and derived tax by its
// combined GST rate. Taxable value is baseRate times billed quantity; free
// quantities carry no taxable value. Only the 5/12/18/28 slabs are recognised,
// lines with any other rate are excluded from the breakup.
func ComputeTaxBreakup(items []Item) TaxBreakup {
	var b TaxBreakup
	for _, it := range items {
		taxable := it.BaseRate * float64(it.ReceivedQty)
		tax := taxable * it.GSTRate() / 100
		switch it.GSTRate() {
		case 5:
			b.GST5.Taxable += taxable
			b.GST5.Tax += tax
		case 12:
			b.GST12.Taxable += taxable
			b.GST12.Tax += tax
		case 18:
			b.GST18.Taxable += taxable
			b.GST18.Tax += tax
		case 28:
			b.GST28.Taxable += taxable
			b.GST28.Tax += tax
		}
	}
	return b
}

// ComputeInvoiceSummary derives the invoice level totals from the line items.
// Tax here includes every line regardless of slab, unlike the breakup.
func ComputeInvoiceSummary(items []Item) InvoiceSummary {
	var s InvoiceSummary
	for _, it := range items {
		taxable := it.BaseRate * float64(it.ReceivedQty)
		s.TaxableAmount += taxable
		s.MRPValue += it.MRP * float64(it.ReceivedQty)
		s.NetAmount += it.Amount
		s.AmountAfterGST += taxable + taxable*it.GSTRate()/100
	}
	s.InvoiceAmount = math.Round(s.AmountAfterGST)
	s.RoundAmount = s.InvoiceAmount - s.AmountAfterGST
	return s
}

// Totals derives the flat subtotal/tax/total fields kept alongside the
// structured summary.
func Totals(items []Item) (subTotal, taxAmount, grandTotal float64) {
	for _, it := range items {
		taxable := it.BaseRate * float64(it.ReceivedQty)
		subTotal += taxable
		taxAmount += taxable * it.GSTRate() / 100
	}
	grandTotal = subTotal + taxAmount
	return subTotal, taxAmount, grandTotal
}
