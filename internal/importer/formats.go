package importer

import (
	"fmt"
	"strings"
)

// FormatID identifies a supported import schema.
type FormatID string

const (
	FormatBosta           FormatID = "bosta"
	FormatShipblu         FormatID = "shipblu"
	FormatShopifyProducts FormatID = "shopify_products"
	FormatShopifyOrders   FormatID = "shopify_orders"
	FormatTemplate        FormatID = "template"
)

// Target is the kind of domain record a format produces.
type Target string

const (
	TargetShipment      Target = "shipment"
	TargetInventoryItem Target = "inventory_item"
	TargetRevenueEntry  Target = "revenue_entry"
)

// Resource is a plan-limited resource counted against a quota.
type Resource string

const (
	ResourceNone           Resource = ""
	ResourceInventoryItems Resource = "inventory_items"
	ResourceRevenueEntries Resource = "revenue_entries"
)

// Format is the declarative description of one vendor schema.
type Format struct {
	ID          FormatID
	Name        string
	Description string
	Target      Target
	// Provider is stored with shipment records and scopes the persisted duplicate check.
	Provider            string
	Resource            Resource
	PersistedDuplicates bool
	AcceptedKinds       []FileKind
	PreferredSheet      string
	Fields              []FieldSpec

	newNormalizer func() rowNormalizer
}

// Accepts reports whether a file kind is allowed for this format.
func (f *Format) Accepts(kind FileKind) bool {
	for _, k := range f.AcceptedKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// KindOf returns the kind of an upload, or UnsupportedFileTypeError when the
// extension is unknown or not accepted by this format.
func (f *Format) KindOf(filename string) (FileKind, error) {
	kind, err := KindFromFilename(filename, AllKinds)
	if err != nil || !f.Accepts(kind) {
		return "", &UnsupportedFileTypeError{Filename: filename, Accepted: f.AcceptedKinds}
	}
	return kind, nil
}

var spreadsheetKinds = []FileKind{KindXLSX, KindXLS, KindCSV}

var formats = []*Format{
	{
		ID:                  FormatBosta,
		Name:                "Bosta deliveries",
		Description:         "Deliveries export from the Bosta business dashboard",
		Target:              TargetShipment,
		Provider:            "bosta",
		Resource:            ResourceNone,
		PersistedDuplicates: true,
		AcceptedKinds:       spreadsheetKinds,
		Fields: []FieldSpec{
			{Name: "trackingNumber", Label: "Tracking Number", Required: true, Example: "7203948812",
				Match: Contains("tracking")},
			{Name: "deliveryState", Label: "Delivery State", Required: true, Example: "Delivered",
				Match: AnyOf(Contains("delivery", "state"), Contains("delivery", "status"), Equals("state", "status"))},
			{Name: "codAmount", Label: "COD Amount", Required: true, Example: "450",
				Match: AnyOf(Equals("cod"), Contains("cash on delivery"), Contains("cash collection"),
					AllOf(Contains("cod"), Not(Contains("code"))))},
			{Name: "shippingFees", Label: "Shipping Fees", Example: "55",
				Match: AnyOf(Contains("fees"), Contains("shipping cost"))},
			{Name: "type", Label: "Type", Example: "Send",
				Match: Equals("type", "order type", "delivery type")},
			{Name: "customerName", Label: "Consignee Name", Example: "Mona Adel",
				Match: AnyOf(Contains("consignee", "name"), Contains("customer", "name"), Contains("receiver", "name"))},
			{Name: "customerPhone", Label: "Consignee Phone", Example: "01001234567",
				Match: Contains("phone")},
			{Name: "city", Label: "Dropoff City", Example: "Cairo",
				Match: AnyOf(Contains("city"), Contains("governorate"))},
			{Name: "address", Label: "Dropoff Address", Example: "12 Tahrir St",
				Match: AllOf(Contains("address"), Not(Contains("email")))},
			{Name: "orderReference", Label: "Order Reference", Example: "#1042",
				Match: AnyOf(Contains("reference"), Contains("order id"))},
			{Name: "createdAt", Label: "Created At", Example: "2024-05-01",
				Match: Contains("created")},
			{Name: "deliveredAt", Label: "Delivered At", Example: "2024-05-03",
				Match: AnyOf(Contains("delivered at"), Contains("delivery date"))},
		},
		newNormalizer: newBostaNormalizer,
	},
	{
		ID:                  FormatShipblu,
		Name:                "Shipblu tracking",
		Description:         "Order tracking export from the Shipblu merchant portal",
		Target:              TargetShipment,
		Provider:            "shipblu",
		Resource:            ResourceNone,
		PersistedDuplicates: true,
		AcceptedKinds:       spreadsheetKinds,
		Fields: []FieldSpec{
			{Name: "trackingNumber", Label: "Tracking Number", Required: true, Example: "SB-55012",
				Match: Contains("tracking")},
			{Name: "status", Label: "Status", Required: true, Example: "delivered",
				Match: AnyOf(Equals("status"), Contains("delivery status"), Contains("order status"), Contains("shipment status"))},
			{Name: "codAmount", Label: "Cash Amount", Example: "320",
				Match: AnyOf(Contains("cash"), Contains("cod amount"), Equals("cod"), Contains("collection"))},
			{Name: "shippingFees", Label: "Shipping Fees", Example: "45",
				Match: Contains("fees")},
			{Name: "customerName", Label: "Customer Name", Example: "Omar Said",
				Match: AnyOf(Contains("customer", "name"), Equals("customer"), Contains("receiver"))},
			{Name: "customerPhone", Label: "Customer Phone", Example: "01112345678",
				Match: Contains("phone")},
			{Name: "governorate", Label: "Governorate", Example: "Giza",
				Match: Contains("governorate")},
			{Name: "city", Label: "City", Example: "Dokki",
				Match: AnyOf(Contains("city"), Contains("zone"))},
			{Name: "orderReference", Label: "Merchant Order Reference", Example: "#2210",
				Match: AnyOf(Contains("reference"), Contains("merchant order"))},
			{Name: "createdAt", Label: "Created On", Example: "2024-05-02",
				Match: AnyOf(Contains("created"), Contains("pickup date"))},
			{Name: "deliveredAt", Label: "Delivered On", Example: "2024-05-04",
				Match: AnyOf(Contains("delivered on"), Contains("delivered at"), Contains("delivery date"))},
		},
		newNormalizer: newShipbluNormalizer,
	},
	{
		ID:            FormatShopifyProducts,
		Name:          "Shopify products",
		Description:   "Products CSV exported from Shopify admin",
		Target:        TargetInventoryItem,
		Resource:      ResourceInventoryItems,
		AcceptedKinds: []FileKind{KindCSV, KindXLSX},
		Fields: []FieldSpec{
			{Name: "handle", Label: "Handle", Required: true, Example: "linen-shirt", Match: Equals("handle")},
			{Name: "title", Label: "Title", Required: true, Example: "Linen Shirt", Match: Equals("title")},
			{Name: "vendor", Label: "Vendor", Example: "Masareefy", Match: Equals("vendor")},
			{Name: "productType", Label: "Type", Example: "Shirts", Match: Equals("type", "product type")},
			{Name: "tags", Label: "Tags", Example: "summer", Match: Equals("tags")},
			{Name: "option1Name", Label: "Option1 Name", Example: "Size", Match: Contains("option1 name")},
			{Name: "option1Value", Label: "Option1 Value", Example: "M", Match: Contains("option1 value")},
			{Name: "option2Name", Label: "Option2 Name", Example: "Color", Match: Contains("option2 name")},
			{Name: "option2Value", Label: "Option2 Value", Example: "White", Match: Contains("option2 value")},
			{Name: "option3Name", Label: "Option3 Name", Match: Contains("option3 name")},
			{Name: "option3Value", Label: "Option3 Value", Match: Contains("option3 value")},
			{Name: "variantSku", Label: "Variant SKU", Required: true, Example: "LS-M-WHT", Match: Contains("variant sku")},
			{Name: "quantity", Label: "Variant Inventory Qty", Example: "12",
				Match: AnyOf(Contains("variant inventory qty"), Contains("inventory quantity"), Contains("on hand"))},
			{Name: "compareAtPrice", Label: "Variant Compare At Price", Example: "650", Match: Contains("compare at price")},
			{Name: "price", Label: "Variant Price", Example: "550", Match: Contains("variant price")},
			{Name: "costPerItem", Label: "Cost per item", Example: "300", Match: Contains("cost per item")},
			{Name: "imageSrc", Label: "Image Src", Match: Equals("image src", "variant image")},
			{Name: "googleSize", Label: "Google Shopping / Size",
				Match: AllOf(Contains("google shopping"), Contains("size"), Not(Contains("size type")), Not(Contains("size system")))},
			{Name: "googleColor", Label: "Google Shopping / Color",
				Match: AllOf(Contains("google shopping"), AnyOf(Contains("color"), Contains("colour")))},
			{Name: "status", Label: "Status", Example: "active", Match: Equals("status")},
		},
		newNormalizer: newShopifyProductNormalizer,
	},
	{
		ID:            FormatShopifyOrders,
		Name:          "Shopify orders",
		Description:   "Orders CSV exported from Shopify admin",
		Target:        TargetRevenueEntry,
		Resource:      ResourceRevenueEntries,
		AcceptedKinds: []FileKind{KindCSV, KindXLSX},
		Fields: []FieldSpec{
			{Name: "orderName", Label: "Name", Required: true, Example: "#1001", Match: Equals("name")},
			{Name: "email", Label: "Email", Example: "buyer@example.com", Match: Equals("email")},
			{Name: "financialStatus", Label: "Financial Status", Example: "paid", Match: Contains("financial status")},
			{Name: "paidAt", Label: "Paid at", Example: "2024-05-01 10:00:00 +0200", Match: Contains("paid at")},
			{Name: "fulfillmentStatus", Label: "Fulfillment Status", Example: "fulfilled", Match: Contains("fulfillment status")},
			{Name: "currency", Label: "Currency", Example: "EGP", Match: Equals("currency")},
			{Name: "subtotal", Label: "Subtotal", Example: "1100", Match: Equals("subtotal")},
			{Name: "shipping", Label: "Shipping", Example: "60", Match: Equals("shipping")},
			{Name: "taxes", Label: "Taxes", Example: "0", Match: Equals("taxes")},
			{Name: "total", Label: "Total", Example: "1160", Match: Equals("total")},
			{Name: "discount", Label: "Discount Amount", Example: "0", Match: Contains("discount amount")},
			{Name: "createdAt", Label: "Created at", Example: "2024-05-01 09:58:00 +0200", Match: Equals("created at")},
			{Name: "quantity", Label: "Lineitem quantity", Required: true, Example: "2", Match: Contains("lineitem quantity")},
			{Name: "lineItemName", Label: "Lineitem name", Required: true, Example: "Linen Shirt - M / White", Match: Contains("lineitem name")},
			{Name: "unitPrice", Label: "Lineitem price", Required: true, Example: "550", Match: Contains("lineitem price")},
			{Name: "lineItemSku", Label: "Lineitem sku", Example: "LS-M-WHT", Match: Contains("lineitem sku")},
			{Name: "paymentMethod", Label: "Payment Method", Example: "Cash on Delivery (COD)", Match: Contains("payment method")},
			{Name: "refundedAmount", Label: "Refunded Amount", Example: "0", Match: Contains("refunded amount")},
			{Name: "cancelledAt", Label: "Cancelled at", Match: Contains("cancelled at")},
			{Name: "billingName", Label: "Billing Name", Example: "Mona Adel", Match: Contains("billing name")},
			{Name: "shippingCity", Label: "Shipping City", Example: "Cairo", Match: Contains("shipping city")},
		},
		newNormalizer: newShopifyOrderNormalizer,
	},
	{
		ID:             FormatTemplate,
		Name:           "Inventory template",
		Description:    "The downloadable inventory template",
		Target:         TargetInventoryItem,
		Resource:       ResourceInventoryItems,
		AcceptedKinds:  spreadsheetKinds,
		PreferredSheet: "Inventory",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Required: true, Example: "Linen Shirt",
				Match: AnyOf(Equals("name", "item", "product"), Contains("product name"), Contains("item name"))},
			{Name: "sku", Label: "SKU", Required: true, Example: "LS-001",
				Match: AnyOf(Contains("sku"), Equals("code", "item code", "product code"))},
			{Name: "category", Label: "Category", Required: true, Example: "Shirts",
				Match: Contains("category")},
			{Name: "stock", Label: "Stock", Required: true, Example: "25",
				Match: AnyOf(Contains("onhand"), Contains("on hand"), Contains("stock"), Equals("quantity", "qty"))},
			{Name: "forecastedQuantity", Label: "Forecasted", Example: "30",
				Match: Contains("forecast")},
			{Name: "sellingPrice", Label: "Selling Price", Required: true, Example: "550",
				Match: AnyOf(Contains("selling price"), Contains("sale price"), Equals("price", "unit price"))},
			{Name: "cost", Label: "Cost", Required: true, Example: "300",
				Match: Contains("cost")},
			{Name: "reorderLevel", Label: "Reorder Level", Example: "10",
				Match: Contains("reorder")},
			{Name: "location", Label: "Location", Example: "Main warehouse",
				Match: AnyOf(Contains("location"), Contains("warehouse"))},
			{Name: "supplier", Label: "Supplier", Example: "Delta Textiles",
				Match: Contains("supplier")},
			{Name: "description", Label: "Description", Example: "100% linen",
				Match: Contains("description")},
			{Name: "sizes", Label: "Sizes", Example: "S, M, L",
				Match: Contains("size")},
			{Name: "colors", Label: "Colors", Example: "White, Beige",
				Match: AnyOf(Contains("color"), Contains("colour"))},
		},
		newNormalizer: newTemplateNormalizer,
	},
}

// Formats returns every registered format in a stable order.
func Formats() []*Format {
	out := make([]*Format, len(formats))
	copy(out, formats)
	return out
}

// LookupFormat finds a format by id, tolerating "-" for "_" and case.
func LookupFormat(id string) (*Format, error) {
	want := FormatID(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), "-", "_"))
	for _, f := range formats {
		if f.ID == want {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, id)
}
