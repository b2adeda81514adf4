package invoiceiq

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rezonia/invoiceiq-go/internal/money"
)

// totalsTolerance absorbs per-line rounding drift when checking totals.
var totalsTolerance = money.MustFromString("0.01")

// lineNet returns the tax-exclusive amount of a line, preferring the declared
// TotalAmount, then quantity * netPrice/unitPrice.
func lineNet(l InvoiceLine) decimal.Decimal {
	if l.TotalAmount != 0 {
		return money.FromFloat(l.TotalAmount)
	}
	if l.NetPrice != nil {
		return money.LineNet(l.Quantity, *l.NetPrice)
	}
	if l.UnitPrice != nil {
		return money.LineNet(l.Quantity, *l.UnitPrice)
	}
	return money.Zero
}

func lineRate(l InvoiceLine) float64 {
	if l.TaxRate != nil {
		return *l.TaxRate
	}
	return 0
}

// ComputeTotals derives TaxSummaries and the three total fields from Lines
// using decimal arithmetic. Lines missing TotalAmount get it filled from
// quantity and unit price. Metadata without lines is left untouched.
func ComputeTotals(m *TransformationMetadata) {
	if m == nil || len(m.Lines) == 0 {
		return
	}

	type group struct {
		rate     float64
		category string
		basis    decimal.Decimal
	}
	groups := map[string]*group{}
	var order []string

	for i := range m.Lines {
		l := &m.Lines[i]
		net := lineNet(*l)
		if l.TotalAmount == 0 {
			l.TotalAmount, _ = net.Float64()
		}

		cat := l.TaxCategoryCode
		if cat == "" {
			cat = "S"
		}
		key := fmt.Sprintf("%s/%v", cat, lineRate(*l))
		g, ok := groups[key]
		if !ok {
			g = &group{rate: lineRate(*l), category: cat, basis: money.Zero}
			groups[key] = g
			order = append(order, key)
		}
		g.basis = g.basis.Add(net)
	}
	sort.Strings(order)

	exclusive := money.Zero
	taxTotal := money.Zero
	summaries := make([]TaxSummary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		tax := money.TaxAmount(g.basis, g.rate)
		exclusive = exclusive.Add(g.basis)
		taxTotal = taxTotal.Add(tax)

		basisF, _ := g.basis.Float64()
		taxF, _ := tax.Float64()
		summaries = append(summaries, TaxSummary{
			TaxRate:         Float(g.rate),
			BasisAmount:     Float(basisF),
			TaxAmount:       Float(taxF),
			TaxCategoryCode: g.category,
		})
	}

	m.TaxSummaries = summaries
	m.TotalTaxExclusiveAmount, _ = exclusive.Float64()
	m.TaxTotalAmount, _ = taxTotal.Float64()
	m.TotalTaxInclusiveAmount, _ = exclusive.Add(taxTotal).Float64()
}

// CheckTotals verifies that the declared totals are internally consistent:
// exclusive + tax = inclusive, and line sums match the exclusive total when
// lines are present. A cent of rounding drift per comparison is tolerated.
func CheckTotals(m *TransformationMetadata) error {
	if m == nil {
		return fmt.Errorf("nil metadata")
	}

	exclusive := money.FromFloat(m.TotalTaxExclusiveAmount)
	tax := money.FromFloat(m.TaxTotalAmount)
	inclusive := money.FromFloat(m.TotalTaxInclusiveAmount)

	if !money.WithinTolerance(exclusive.Add(tax), inclusive, totalsTolerance) {
		return fmt.Errorf("totalTaxInclusiveAmount %s does not equal exclusive %s + tax %s",
			inclusive, exclusive, tax)
	}

	if len(m.Lines) > 0 {
		nets := make([]decimal.Decimal, 0, len(m.Lines))
		for _, l := range m.Lines {
			nets = append(nets, lineNet(l))
		}
		lineSum := money.Sum(nets)
		if !money.WithinTolerance(lineSum, exclusive, totalsTolerance) {
			return fmt.Errorf("line totals sum to %s, totalTaxExclusiveAmount is %s", lineSum, exclusive)
		}
	}

	return nil
}
