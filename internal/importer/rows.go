package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizedRow is one typed source row of a specific format.
type NormalizedRow interface {
	Format() FormatID
	// SourceRow is the 1-based spreadsheet row the record came from.
	SourceRow() int
	// NaturalKey identifies the row for duplicate detection. Empty keys never collide.
	NaturalKey() string
	// ReferenceKey is the inventory SKU the row points at, if any.
	ReferenceKey() string
	Issues() []RowIssue
}

// Issue codes
const (
	IssueRequired        = "REQUIRED_FIELD"
	IssueNotNumeric      = "INVALID_NUMBER"
	IssueNegative        = "NEGATIVE_VALUE"
	IssueInvalidQuantity = "INVALID_QUANTITY"
)

// RowIssue describes why a row is invalid.
type RowIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RowMeta is embedded in every row variant.
type RowMeta struct {
	Row             int      `json:"row"`
	UnparsedNumbers []string `json:"unparsedNumbers,omitempty"`
}

func (m RowMeta) SourceRow() int { return m.Row }

func (m RowMeta) unparsed(field string) bool {
	for _, f := range m.UnparsedNumbers {
		if f == field {
			return true
		}
	}
	return false
}

func required(issues []RowIssue, field, value string) []RowIssue {
	if strings.TrimSpace(value) == "" {
		issues = append(issues, RowIssue{Field: field, Code: IssueRequired, Message: field + " is required"})
	}
	return issues
}

func numeric(issues []RowIssue, m RowMeta, field string, value decimal.Decimal, allowNegative bool) []RowIssue {
	switch {
	case m.unparsed(field):
		issues = append(issues, RowIssue{Field: field, Code: IssueNotNumeric, Message: field + " must be a number"})
	case !allowNegative && value.IsNegative():
		issues = append(issues, RowIssue{Field: field, Code: IssueNegative, Message: field + " cannot be negative"})
	}
	return issues
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ShipmentState is the resolved delivery outcome of a carrier row.
type ShipmentState string

const (
	StateDelivered  ShipmentState = "delivered"
	StateReturned   ShipmentState = "returned"
	StateInProgress ShipmentState = "in_progress"
	StateCancelled  ShipmentState = "cancelled"
)

// ClassifyShipmentState maps free-text carrier states onto ShipmentState.
func ClassifyShipmentState(raw string) ShipmentState {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	switch {
	case containsAny(s, "cancel", "terminat", "lost", "damaged", "ملغ", "الغاء", "إلغاء"):
		return StateCancelled
	case containsAny(s, "return", "rto", "مرتجع", "مرتج"):
		return StateReturned
	case containsAny(s, "undeliver", "not delivered", "failed"):
		return StateInProgress
	case containsAny(s, "delivered", "تم التوصيل", "تم التسليم"):
		return StateDelivered
	default:
		return StateInProgress
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BostaShipmentRow is one line of a Bosta deliveries export.
type BostaShipmentRow struct {
	RowMeta
	TrackingNumber string          `json:"trackingNumber"`
	DeliveryState  string          `json:"deliveryState"`
	State          ShipmentState   `json:"state"`
	CODAmount      decimal.Decimal `json:"codAmount"`
	ShippingFees   decimal.Decimal `json:"shippingFees"`
	Type           string          `json:"type,omitempty"`
	CustomerName   string          `json:"customerName,omitempty"`
	CustomerPhone  string          `json:"customerPhone,omitempty"`
	City           string          `json:"city,omitempty"`
	Address        string          `json:"address,omitempty"`
	OrderReference string          `json:"orderReference,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	DeliveredAt    string          `json:"deliveredAt,omitempty"`
}

func (r *BostaShipmentRow) Format() FormatID     { return FormatBosta }
func (r *BostaShipmentRow) NaturalKey() string   { return key(r.TrackingNumber) }
func (r *BostaShipmentRow) ReferenceKey() string { return "" }

func (r *BostaShipmentRow) Issues() []RowIssue {
	var issues []RowIssue
	issues = required(issues, "deliveryState", r.DeliveryState)
	issues = numeric(issues, r.RowMeta, "codAmount", r.CODAmount, false)
	return issues
}

// ShipbluTrackingRow is one line of a Shipblu tracking export.
type ShipbluTrackingRow struct {
	RowMeta
	TrackingNumber string          `json:"trackingNumber"`
	Status         string          `json:"status"`
	State          ShipmentState   `json:"state"`
	CODAmount      decimal.Decimal `json:"codAmount"`
	ShippingFees   decimal.Decimal `json:"shippingFees"`
	CustomerName   string          `json:"customerName,omitempty"`
	CustomerPhone  string          `json:"customerPhone,omitempty"`
	Governorate    string          `json:"governorate,omitempty"`
	City           string          `json:"city,omitempty"`
	OrderReference string          `json:"orderReference,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	DeliveredAt    string          `json:"deliveredAt,omitempty"`
}

func (r *ShipbluTrackingRow) Format() FormatID     { return FormatShipblu }
func (r *ShipbluTrackingRow) NaturalKey() string   { return key(r.TrackingNumber) }
func (r *ShipbluTrackingRow) ReferenceKey() string { return "" }

func (r *ShipbluTrackingRow) Issues() []RowIssue {
	var issues []RowIssue
	issues = required(issues, "status", r.Status)
	issues = numeric(issues, r.RowMeta, "codAmount", r.CODAmount, false)
	return issues
}

// ShopifyProductRow is one variant line of a Shopify products export.
type ShopifyProductRow struct {
	RowMeta
	Handle         string          `json:"handle"`
	Title          string          `json:"title"`
	Vendor         string          `json:"vendor,omitempty"`
	ProductType    string          `json:"productType,omitempty"`
	Tags           string          `json:"tags,omitempty"`
	Status         string          `json:"status,omitempty"`
	VariantSKU     string          `json:"variantSku"`
	Price          decimal.Decimal `json:"price"`
	CompareAtPrice decimal.Decimal `json:"compareAtPrice"`
	CostPerItem    decimal.Decimal `json:"costPerItem"`
	Quantity       int64           `json:"quantity"`
	Option1Value   string          `json:"option1Value,omitempty"`
	Sizes          []string        `json:"sizes,omitempty"`
	Colors         []string        `json:"colors,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`

	optionNames [3]string
}

func (r *ShopifyProductRow) Format() FormatID     { return FormatShopifyProducts }
func (r *ShopifyProductRow) NaturalKey() string   { return key(r.VariantSKU) }
func (r *ShopifyProductRow) ReferenceKey() string { return key(r.VariantSKU) }

func (r *ShopifyProductRow) Issues() []RowIssue {
	var issues []RowIssue
	issues = required(issues, "variantSku", r.VariantSKU)
	issues = numeric(issues, r.RowMeta, "price", r.Price, false)
	issues = numeric(issues, r.RowMeta, "quantity", decimal.NewFromInt(r.Quantity), true)
	issues = numeric(issues, r.RowMeta, "costPerItem", r.CostPerItem, false)
	return issues
}

// ShopifyOrderRow is one line item of a Shopify orders export. Order-level
// fields are carried forward from the order's first line.
type ShopifyOrderRow struct {
	RowMeta
	OrderName         string          `json:"orderName"`
	Email             string          `json:"email,omitempty"`
	FinancialStatus   string          `json:"financialStatus,omitempty"`
	FulfillmentStatus string          `json:"fulfillmentStatus,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Shipping          decimal.Decimal `json:"shipping"`
	Taxes             decimal.Decimal `json:"taxes"`
	Total             decimal.Decimal `json:"total"`
	Discount          decimal.Decimal `json:"discount"`
	RefundedAmount    decimal.Decimal `json:"refundedAmount"`
	CreatedAt         string          `json:"createdAt,omitempty"`
	PaidAt            string          `json:"paidAt,omitempty"`
	CancelledAt       string          `json:"cancelledAt,omitempty"`
	PaymentMethod     string          `json:"paymentMethod,omitempty"`
	BillingName       string          `json:"billingName,omitempty"`
	ShippingCity      string          `json:"shippingCity,omitempty"`
	LineItemName      string          `json:"lineItemName"`
	LineItemSKU       string          `json:"lineItemSku,omitempty"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
}

func (r *ShopifyOrderRow) Format() FormatID { return FormatShopifyOrders }

func (r *ShopifyOrderRow) NaturalKey() string {
	item := r.LineItemSKU
	if strings.TrimSpace(item) == "" {
		item = r.LineItemName
	}
	return key(r.OrderName) + "|" + key(item)
}

func (r *ShopifyOrderRow) ReferenceKey() string { return key(r.LineItemSKU) }

// LineTotal is quantity times unit price.
func (r *ShopifyOrderRow) LineTotal() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(r.Quantity))
}

func (r *ShopifyOrderRow) Issues() []RowIssue {
	var issues []RowIssue
	issues = required(issues, "lineItemName", r.LineItemName)
	if r.unparsed("quantity") || r.Quantity <= 0 {
		issues = append(issues, RowIssue{Field: "quantity", Code: IssueInvalidQuantity, Message: "quantity must be a positive number"})
	}
	issues = numeric(issues, r.RowMeta, "unitPrice", r.UnitPrice, false)
	return issues
}

// TemplateInventoryRow is one line of the system inventory template.
type TemplateInventoryRow struct {
	RowMeta
	Name               string          `json:"name"`
	BaseSKU            string          `json:"baseSku"`
	Category           string          `json:"category"`
	Stock              int64           `json:"stock"`
	SellingPrice       decimal.Decimal `json:"sellingPrice"`
	Cost               decimal.Decimal `json:"cost"`
	ReorderLevel       int64           `json:"reorderLevel"`
	ForecastedQuantity int64           `json:"forecastedQuantity"`
	Location           string          `json:"location"`
	Supplier           string          `json:"supplier,omitempty"`
	Description        string          `json:"description,omitempty"`
	Sizes              []string        `json:"sizes,omitempty"`
	Colors             []string        `json:"colors,omitempty"`

	blank []string
}

func (r *TemplateInventoryRow) Format() FormatID     { return FormatTemplate }
func (r *TemplateInventoryRow) NaturalKey() string   { return key(r.BaseSKU) }
func (r *TemplateInventoryRow) ReferenceKey() string { return key(r.BaseSKU) }

func (r *TemplateInventoryRow) Issues() []RowIssue {
	var issues []RowIssue
	issues = required(issues, "name", r.Name)
	issues = required(issues, "sku", r.BaseSKU)
	issues = required(issues, "category", r.Category)
	for _, field := range r.blank {
		issues = append(issues, RowIssue{Field: field, Code: IssueRequired, Message: field + " is required"})
	}
	issues = numeric(issues, r.RowMeta, "stock", decimal.NewFromInt(r.Stock), false)
	issues = numeric(issues, r.RowMeta, "sellingPrice", r.SellingPrice, false)
	issues = numeric(issues, r.RowMeta, "cost", r.Cost, false)
	return issues
}
