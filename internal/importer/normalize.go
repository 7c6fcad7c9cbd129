package importer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// rowNormalizer turns one non-blank source row into a typed row, or returns
// nil when the row has no presence key and must be skipped.
type rowNormalizer func(c *cells) NormalizedRow

// cells reads one source row through a FieldMap.
type cells struct {
	fm   FieldMap
	raw  []string
	meta RowMeta
}

func (c *cells) text(field string) string {
	i := c.fm.Index(field)
	if i < 0 || i >= len(c.raw) {
		return ""
	}
	return strings.TrimSpace(c.raw[i])
}

func (c *cells) amount(field string) decimal.Decimal {
	d, ok := ParseAmount(c.text(field))
	if !ok {
		c.meta.UnparsedNumbers = append(c.meta.UnparsedNumbers, field)
	}
	return d
}

func (c *cells) quantity(field string) int64 {
	q, ok := ParseQuantity(c.text(field))
	if !ok {
		c.meta.UnparsedNumbers = append(c.meta.UnparsedNumbers, field)
	}
	return q
}

func (c *cells) mapped(field string) bool {
	return c.fm.Index(field) >= 0
}

// Parsed is the result of running a table through a format's header
// resolution and row normalization.
type Parsed struct {
	Format *Format
	Fields FieldMap
	Rows   []NormalizedRow
}

// Parse resolves the header of table and normalizes every data row.
func Parse(f *Format, table *RawTable) (*Parsed, error) {
	fm, err := ResolveHeaders(f.ID, table.Header, f.Fields)
	if err != nil {
		return nil, err
	}
	return &Parsed{Format: f, Fields: fm, Rows: Normalize(f, table, fm)}, nil
}

// Normalize converts data rows into NormalizedRows in file order.
func Normalize(f *Format, table *RawTable, fm FieldMap) []NormalizedRow {
	next := f.newNormalizer()
	headerRow := table.HeaderRow
	if headerRow < 1 {
		headerRow = 1
	}

	out := make([]NormalizedRow, 0, len(table.Rows))
	for i, raw := range table.Rows {
		if isBlankRow(raw) {
			continue
		}
		c := &cells{fm: fm, raw: raw, meta: RowMeta{Row: headerRow + 1 + i}}
		if row := next(c); row != nil {
			out = append(out, row)
		}
	}
	return out
}

func newBostaNormalizer() rowNormalizer {
	return func(c *cells) NormalizedRow {
		tracking := c.text("trackingNumber")
		if tracking == "" {
			return nil
		}
		row := &BostaShipmentRow{
			TrackingNumber: tracking,
			DeliveryState:  c.text("deliveryState"),
			CODAmount:      c.amount("codAmount"),
			ShippingFees:   c.amount("shippingFees"),
			Type:           c.text("type"),
			CustomerName:   c.text("customerName"),
			CustomerPhone:  c.text("customerPhone"),
			City:           c.text("city"),
			Address:        c.text("address"),
			OrderReference: c.text("orderReference"),
			CreatedAt:      c.text("createdAt"),
			DeliveredAt:    c.text("deliveredAt"),
		}
		row.State = ClassifyShipmentState(row.DeliveryState)
		row.RowMeta = c.meta
		return row
	}
}

func newShipbluNormalizer() rowNormalizer {
	return func(c *cells) NormalizedRow {
		tracking := c.text("trackingNumber")
		if tracking == "" {
			return nil
		}
		row := &ShipbluTrackingRow{
			TrackingNumber: tracking,
			Status:         c.text("status"),
			CODAmount:      c.amount("codAmount"),
			ShippingFees:   c.amount("shippingFees"),
			CustomerName:   c.text("customerName"),
			CustomerPhone:  c.text("customerPhone"),
			Governorate:    c.text("governorate"),
			City:           c.text("city"),
			OrderReference: c.text("orderReference"),
			CreatedAt:      c.text("createdAt"),
			DeliveredAt:    c.text("deliveredAt"),
		}
		row.State = ClassifyShipmentState(row.Status)
		row.RowMeta = c.meta
		return row
	}
}

// Shopify writes product-level columns only on the first line of a handle;
// later variant lines inherit them.
func newShopifyProductNormalizer() rowNormalizer {
	var prev *ShopifyProductRow

	return func(c *cells) NormalizedRow {
		sku := c.text("variantSku")
		title := c.text("title")
		option1 := c.text("option1Value")
		if sku == "" && title == "" && option1 == "" {
			return nil
		}

		row := &ShopifyProductRow{
			Handle:         c.text("handle"),
			Title:          title,
			Vendor:         c.text("vendor"),
			ProductType:    c.text("productType"),
			Tags:           c.text("tags"),
			Status:         c.text("status"),
			VariantSKU:     sku,
			Price:          c.amount("price"),
			CompareAtPrice: c.amount("compareAtPrice"),
			CostPerItem:    c.amount("costPerItem"),
			Quantity:       c.quantity("quantity"),
			Option1Value:   option1,
			ImageURL:       c.text("imageSrc"),
		}

		if prev != nil && row.Handle != "" && strings.EqualFold(row.Handle, prev.Handle) {
			if row.Title == "" {
				row.Title = prev.Title
			}
			if row.Vendor == "" {
				row.Vendor = prev.Vendor
			}
			if row.ProductType == "" {
				row.ProductType = prev.ProductType
			}
		}

		for n := range row.optionNames {
			slot := strconv.Itoa(n + 1)
			name := strings.ToLower(c.text("option" + slot + "Name"))
			value := c.text("option" + slot + "Value")
			if name == "" && prev != nil && strings.EqualFold(row.Handle, prev.Handle) {
				name = prev.optionNames[n]
			}
			row.optionNames[n] = name
			switch {
			case strings.Contains(name, "size"):
				row.Sizes = appendUnique(row.Sizes, value)
			case strings.Contains(name, "color"), strings.Contains(name, "colour"):
				row.Colors = appendUnique(row.Colors, value)
			}
		}
		row.Sizes = appendUnique(row.Sizes, c.text("googleSize"))
		row.Colors = appendUnique(row.Colors, c.text("googleColor"))

		row.RowMeta = c.meta
		prev = row
		return row
	}
}

func newShopifyOrderNormalizer() rowNormalizer {
	var first *ShopifyOrderRow

	return func(c *cells) NormalizedRow {
		name := c.text("orderName")
		if name == "" {
			return nil
		}

		row := &ShopifyOrderRow{
			OrderName:         name,
			Email:             c.text("email"),
			FinancialStatus:   c.text("financialStatus"),
			FulfillmentStatus: c.text("fulfillmentStatus"),
			Currency:          c.text("currency"),
			Subtotal:          c.amount("subtotal"),
			Shipping:          c.amount("shipping"),
			Taxes:             c.amount("taxes"),
			Total:             c.amount("total"),
			Discount:          c.amount("discount"),
			RefundedAmount:    c.amount("refundedAmount"),
			CreatedAt:         c.text("createdAt"),
			PaidAt:            c.text("paidAt"),
			CancelledAt:       c.text("cancelledAt"),
			PaymentMethod:     c.text("paymentMethod"),
			BillingName:       c.text("billingName"),
			ShippingCity:      c.text("shippingCity"),
			LineItemName:      c.text("lineItemName"),
			LineItemSKU:       c.text("lineItemSku"),
			Quantity:          c.quantity("quantity"),
			UnitPrice:         c.amount("unitPrice"),
		}

		if first != nil && strings.EqualFold(first.OrderName, name) {
			row.inheritOrderFields(first)
		} else {
			first = row
		}

		row.RowMeta = c.meta
		return row
	}
}

func (r *ShopifyOrderRow) inheritOrderFields(first *ShopifyOrderRow) {
	if r.FinancialStatus == "" {
		r.FinancialStatus = first.FinancialStatus
	}
	if r.Currency == "" {
		r.Currency = first.Currency
	}
	if r.CreatedAt == "" {
		r.CreatedAt = first.CreatedAt
	}
	if r.PaidAt == "" {
		r.PaidAt = first.PaidAt
	}
	if r.CancelledAt == "" {
		r.CancelledAt = first.CancelledAt
	}
	if r.Email == "" {
		r.Email = first.Email
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = first.PaymentMethod
	}
}

const (
	DefaultReorderLevel = 10
	DefaultLocation     = "Imported"
)

var requiredTemplateNumbers = []string{"stock", "sellingPrice", "cost"}

func newTemplateNormalizer() rowNormalizer {
	return func(c *cells) NormalizedRow {
		name := c.text("name")
		sku := c.text("sku")
		if name == "" && sku == "" {
			return nil
		}

		row := &TemplateInventoryRow{
			Name:               name,
			BaseSKU:            sku,
			Category:           c.text("category"),
			Stock:              c.quantity("stock"),
			SellingPrice:       c.amount("sellingPrice"),
			Cost:               c.amount("cost"),
			ReorderLevel:       DefaultReorderLevel,
			ForecastedQuantity: c.quantity("forecastedQuantity"),
			Location:           c.text("location"),
			Supplier:           c.text("supplier"),
			Description:        c.text("description"),
			Sizes:              splitList(c.text("sizes")),
			Colors:             splitList(c.text("colors")),
		}
		if c.mapped("reorderLevel") && c.text("reorderLevel") != "" {
			row.ReorderLevel = c.quantity("reorderLevel")
		}
		if row.Location == "" {
			row.Location = DefaultLocation
		}
		for _, field := range requiredTemplateNumbers {
			if c.text(field) == "" {
				row.blank = append(row.blank, field)
			}
		}

		row.RowMeta = c.meta
		return row
	}
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/' || r == '|' || r == '،'
	})
	var out []string
	for _, p := range parts {
		out = appendUnique(out, p)
	}
	return out
}

// appendUnique appends a trimmed value unless it is blank or already present
// (case-insensitively).
func appendUnique(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return list
	}
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return list
		}
	}
	return append(list, value)
}
