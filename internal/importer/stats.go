package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ImportStatistics aggregates a classified row set. Exactly one of the
// format blocks is set.
type ImportStatistics struct {
	TotalRows            int `json:"totalRows"`
	ValidRows            int `json:"validRows"`
	InvalidRows          int `json:"invalidRows"`
	DuplicateRows        int `json:"duplicateRows"`
	UnknownReferenceRows int `json:"unknownReferenceRows"`

	Shipments *ShipmentStats  `json:"shipments,omitempty"`
	Products  *ProductStats   `json:"products,omitempty"`
	Orders    *OrderStats     `json:"orders,omitempty"`
	Inventory *InventoryStats `json:"inventory,omitempty"`
}

// ShipmentStats covers Bosta and Shipblu. Rates are percentages over
// delivered+returned.
type ShipmentStats struct {
	TotalOrders   int             `json:"totalOrders"`
	Delivered     int             `json:"delivered"`
	Returned      int             `json:"returned"`
	InProgress    int             `json:"inProgress"`
	Cancelled     int             `json:"cancelled"`
	DeliveryRate  float64         `json:"deliveryRate"`
	ReturnRate    float64         `json:"returnRate"`
	ExpectedCash  decimal.Decimal `json:"expectedCash"`
	CollectedCash decimal.Decimal `json:"collectedCash"`
	TotalCOD      decimal.Decimal `json:"totalCod"`
	ShippingFees  decimal.Decimal `json:"shippingFees"`
}

type ProductStats struct {
	Variants       int             `json:"variants"`
	Products       int             `json:"products"`
	Units          int64           `json:"units"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	CostValue      decimal.Decimal `json:"costValue"`
}

// OrderStats rates are percentages over distinct orders.
type OrderStats struct {
	Orders          int             `json:"orders"`
	LineItems       int             `json:"lineItems"`
	Units           int64           `json:"units"`
	Revenue         decimal.Decimal `json:"revenue"`
	PaidOrders      int             `json:"paidOrders"`
	RefundedOrders  int             `json:"refundedOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
	PaidRate        float64         `json:"paidRate"`
}

type InventoryStats struct {
	Items          int             `json:"items"`
	Units          int64           `json:"units"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	CostValue      decimal.Decimal `json:"costValue"`
	Categories     int             `json:"categories"`
}

// Rate returns count/base as a percentage rounded to two places; a zero base yields 0.
func Rate(count, base int) float64 {
	if base <= 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(int64(count)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(base))).
		Round(2).
		Float64()
	return r
}

func computeStatistics(rows []NormalizedRow, verdicts []RowClassification) ImportStatistics {
	stats := ImportStatistics{TotalRows: len(rows)}

	var valid []NormalizedRow
	for i, rc := range verdicts {
		switch rc.Status {
		case StatusValid:
			stats.ValidRows++
			valid = append(valid, rows[i])
		case StatusInvalid:
			stats.InvalidRows++
		case StatusDuplicate:
			stats.DuplicateRows++
		}
		if rc.UnknownReference {
			stats.UnknownReferenceRows++
		}
	}

	if len(rows) == 0 {
		return stats
	}

	switch rows[0].Format() {
	case FormatBosta, FormatShipblu:
		stats.Shipments = shipmentStats(valid)
	case FormatShopifyProducts:
		stats.Products = productStats(valid)
	case FormatShopifyOrders:
		stats.Orders = orderStats(valid)
	case FormatTemplate:
		stats.Inventory = inventoryStats(valid)
	}
	return stats
}

func shipmentStats(rows []NormalizedRow) *ShipmentStats {
	s := &ShipmentStats{}
	for _, row := range rows {
		var (
			state     ShipmentState
			cod, fees decimal.Decimal
		)
		switch r := row.(type) {
		case *BostaShipmentRow:
			state, cod, fees = r.State, r.CODAmount, r.ShippingFees
		case *ShipbluTrackingRow:
			state, cod, fees = r.State, r.CODAmount, r.ShippingFees
		default:
			continue
		}

		s.TotalOrders++
		s.TotalCOD = s.TotalCOD.Add(cod)
		s.ShippingFees = s.ShippingFees.Add(fees)

		switch state {
		case StateDelivered:
			s.Delivered++
			s.CollectedCash = s.CollectedCash.Add(cod)
			s.ExpectedCash = s.ExpectedCash.Add(cod)
		case StateReturned:
			s.Returned++
		case StateCancelled:
			s.Cancelled++
		default:
			s.InProgress++
			s.ExpectedCash = s.ExpectedCash.Add(cod)
		}
	}

	base := s.Delivered + s.Returned
	s.DeliveryRate = Rate(s.Delivered, base)
	s.ReturnRate = Rate(s.Returned, base)
	return s
}

func productStats(rows []NormalizedRow) *ProductStats {
	s := &ProductStats{}
	handles := map[string]struct{}{}
	for _, row := range rows {
		r, ok := row.(*ShopifyProductRow)
		if !ok {
			continue
		}
		s.Variants++
		handle := key(r.Handle)
		if handle == "" {
			handle = key(r.VariantSKU)
		}
		handles[handle] = struct{}{}

		units := decimal.NewFromInt(r.Quantity)
		if r.Quantity > 0 {
			s.Units += r.Quantity
			s.InventoryValue = s.InventoryValue.Add(r.Price.Mul(units))
			s.CostValue = s.CostValue.Add(r.CostPerItem.Mul(units))
		}
	}
	s.Products = len(handles)
	return s
}

func orderStats(rows []NormalizedRow) *OrderStats {
	s := &OrderStats{}
	type orderFlags struct{ paid, refunded, cancelled bool }
	orders := map[string]*orderFlags{}

	for _, row := range rows {
		r, ok := row.(*ShopifyOrderRow)
		if !ok {
			continue
		}
		s.LineItems++
		s.Units += r.Quantity
		s.Revenue = s.Revenue.Add(r.LineTotal())

		name := key(r.OrderName)
		flags, seen := orders[name]
		if !seen {
			flags = &orderFlags{}
			orders[name] = flags
		}
		status := strings.ToLower(r.FinancialStatus)
		switch {
		case strings.Contains(status, "refund"):
			flags.refunded = true
		case status == "paid" || status == "partially_paid" || status == "partially paid":
			flags.paid = true
		}
		if r.CancelledAt != "" || strings.Contains(status, "void") {
			flags.cancelled = true
		}
	}

	s.Orders = len(orders)
	for _, f := range orders {
		if f.paid {
			s.PaidOrders++
		}
		if f.refunded {
			s.RefundedOrders++
		}
		if f.cancelled {
			s.CancelledOrders++
		}
	}
	s.PaidRate = Rate(s.PaidOrders, s.Orders)
	return s
}

func inventoryStats(rows []NormalizedRow) *InventoryStats {
	s := &InventoryStats{}
	categories := map[string]struct{}{}
	for _, row := range rows {
		r, ok := row.(*TemplateInventoryRow)
		if !ok {
			continue
		}
		s.Items++
		s.Units += r.Stock
		units := decimal.NewFromInt(r.Stock)
		s.InventoryValue = s.InventoryValue.Add(r.SellingPrice.Mul(units))
		s.CostValue = s.CostValue.Add(r.Cost.Mul(units))
		if c := key(r.Category); c != "" {
			categories[c] = struct{}{}
		}
	}
	s.Categories = len(categories)
	return s
}
