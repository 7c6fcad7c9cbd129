package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_SkipsBlankAndKeylessRows(t *testing.T) {
	parsed := parseTable(t, FormatBosta,
		[]string{"Tracking Number", "Delivery State", "COD Amount"},
		[]string{"TN1", "Delivered", "100"},
		[]string{"", " ", ""},
		[]string{},
		[]string{"", "Delivered", "20"},
		[]string{"TN2", "Returned"},
	)

	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, 2, parsed.Rows[0].SourceRow())
	assert.Equal(t, 6, parsed.Rows[1].SourceRow())

	second := parsed.Rows[1].(*BostaShipmentRow)
	assert.True(t, second.CODAmount.IsZero())
	assert.Equal(t, StateReturned, second.State)
}

func TestNormalize_UnparsedNumbersAreRecorded(t *testing.T) {
	parsed := parseTable(t, FormatBosta,
		[]string{"Tracking Number", "Delivery State", "COD Amount"},
		[]string{"TN1", "Delivered", "call customer"},
	)

	row := parsed.Rows[0].(*BostaShipmentRow)
	assert.True(t, row.CODAmount.IsZero())
	assert.Equal(t, []string{"codAmount"}, row.UnparsedNumbers)
	require.Len(t, row.Issues(), 1)
	assert.Equal(t, IssueNotNumeric, row.Issues()[0].Code)
}

func TestNormalize_TemplateDefaults(t *testing.T) {
	parsed := parseTable(t, FormatTemplate,
		[]string{"Name", "SKU", "Category", "Stock", "Selling Price", "Cost"},
		[]string{"Shirt", "S-1", "Tops", "5", "EGP 1,100", "600"},
	)

	row := parsed.Rows[0].(*TemplateInventoryRow)
	assert.Equal(t, int64(DefaultReorderLevel), row.ReorderLevel)
	assert.Equal(t, DefaultLocation, row.Location)
	assert.True(t, row.SellingPrice.Equal(decimal.NewFromInt(1100)))
	assert.Empty(t, row.Issues())
}

func TestNormalize_TemplateQuantities(t *testing.T) {
	parsed := parseTable(t, FormatTemplate,
		[]string{"Name", "SKU", "Category", "Stock", "Selling Price", "Cost", "Reorder Level"},
		[]string{"Shirt", "S-1", "Tops", "1,200.9", "100", "60", "a few"},
	)

	row := parsed.Rows[0].(*TemplateInventoryRow)
	assert.Equal(t, int64(1200), row.Stock)
	assert.Equal(t, []string{"reorderLevel"}, row.UnparsedNumbers)
}

func TestNormalize_TemplateBlankRequiredNumber(t *testing.T) {
	parsed := parseTable(t, FormatTemplate,
		[]string{"Name", "SKU", "Category", "Stock", "Selling Price", "Cost", "Reorder Level", "Location", "Sizes"},
		[]string{"Shirt", "S-1", "Tops", "", "100", "60", "3", "Shelf B", "S, M, s"},
	)

	row := parsed.Rows[0].(*TemplateInventoryRow)
	assert.Equal(t, int64(3), row.ReorderLevel)
	assert.Equal(t, "Shelf B", row.Location)
	assert.Equal(t, []string{"S", "M"}, row.Sizes)
	require.Len(t, row.Issues(), 1)
	assert.Equal(t, RowIssue{Field: "stock", Code: IssueRequired, Message: "stock is required"}, row.Issues()[0])
}

func TestNormalize_ShopifyOptionsAndContinuationRows(t *testing.T) {
	header := []string{
		"Handle", "Title", "Vendor", "Option1 Name", "Option1 Value", "Option2 Name", "Option2 Value",
		"Variant SKU", "Variant Price", "Variant Inventory Qty", "Image Src", "Google Shopping / Color",
	}
	parsed := parseTable(t, FormatShopifyProducts, header,
		[]string{"linen-shirt", "Linen Shirt", "Acme", "Size", "M", "Colour", "White", "LS-M-W", "550", "4", "", "Off white"},
		[]string{"linen-shirt", "", "", "", "L", "", "White", "LS-L-W", "550", "2", "", ""},
		[]string{"linen-shirt", "", "", "", "", "", "", "", "", "", "https://cdn/img2.jpg", ""},
	)

	require.Len(t, parsed.Rows, 2)

	first := parsed.Rows[0].(*ShopifyProductRow)
	assert.Equal(t, []string{"M"}, first.Sizes)
	assert.Equal(t, []string{"White", "Off white"}, first.Colors)

	second := parsed.Rows[1].(*ShopifyProductRow)
	assert.Equal(t, "Linen Shirt", second.Title)
	assert.Equal(t, "Acme", second.Vendor)
	assert.Equal(t, []string{"L"}, second.Sizes)
	assert.Equal(t, []string{"White"}, second.Colors)
	assert.Equal(t, int64(2), second.Quantity)
}

func TestNormalize_ShopifyOrderKeyFallsBackToLineItemName(t *testing.T) {
	parsed := parseTable(t, FormatShopifyOrders,
		[]string{"Name", "Lineitem quantity", "Lineitem name", "Lineitem price", "Lineitem sku"},
		[]string{"#1001", "1", "Gift wrap", "20", ""},
		[]string{"#1001", "1", "Shirt", "100", "S-1"},
	)

	assert.Equal(t, "#1001|gift wrap", parsed.Rows[0].NaturalKey())
	assert.Equal(t, "", parsed.Rows[0].ReferenceKey())
	assert.Equal(t, "#1001|s-1", parsed.Rows[1].NaturalKey())
	assert.Equal(t, "s-1", parsed.Rows[1].ReferenceKey())
}

func TestLookupFormat(t *testing.T) {
	f, err := LookupFormat("Shopify-Products")
	require.NoError(t, err)
	assert.Equal(t, FormatShopifyProducts, f.ID)

	_, err = LookupFormat("amazon")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
