package importer

// TemplateColumn describes one column of a downloadable template.
type TemplateColumn struct {
	Field    string `json:"field"`
	Header   string `json:"header"`
	Required bool   `json:"required"`
	Example  string `json:"example,omitempty"`
}

// TemplateColumns lists the columns a template for f carries: every required
// field plus every optional field with an example value.
func TemplateColumns(f *Format) []TemplateColumn {
	var cols []TemplateColumn
	for _, spec := range f.Fields {
		if !spec.Required && spec.Example == "" {
			continue
		}
		cols = append(cols, TemplateColumn{Field: spec.Name, Header: spec.Label, Required: spec.Required, Example: spec.Example})
	}
	return cols
}

// Template returns the example table for a format.
func Template(id FormatID) (*RawTable, error) {
	switch id {
	case FormatBosta:
		return BostaTemplate(), nil
	case FormatShipblu:
		return ShipbluTemplate(), nil
	case FormatShopifyProducts:
		return ShopifyProductsTemplate(), nil
	case FormatShopifyOrders:
		return ShopifyOrdersTemplate(), nil
	case FormatTemplate:
		return InventoryTemplate(), nil
	}
	return nil, ErrUnknownFormat
}

func BostaTemplate() *RawTable {
	return buildTemplate(FormatBosta,
		nil,
		map[string]string{
			"trackingNumber": "7203948813",
			"deliveryState":  "Heading to customer",
			"codAmount":      "275",
			"customerName":   "Karim Nabil",
			"customerPhone":  "01223456789",
			"city":           "Alexandria",
			"address":        "5 Fouad St",
			"orderReference": "#1043",
			"deliveredAt":    "",
		},
	)
}

func ShipbluTemplate() *RawTable {
	return buildTemplate(FormatShipblu,
		nil,
		map[string]string{
			"trackingNumber": "SB-55013",
			"status":         "returned",
			"codAmount":      "180",
			"customerName":   "Nour Hassan",
			"customerPhone":  "01098765432",
			"governorate":    "Cairo",
			"city":           "Nasr City",
			"orderReference": "#2211",
			"deliveredAt":    "",
		},
	)
}

func ShopifyProductsTemplate() *RawTable {
	return buildTemplate(FormatShopifyProducts,
		nil,
		map[string]string{
			"title":          "",
			"vendor":         "",
			"productType":    "",
			"tags":           "",
			"option1Value":   "L",
			"option2Value":   "Beige",
			"variantSku":     "LS-L-BEI",
			"quantity":       "7",
			"compareAtPrice": "",
		},
	)
}

func ShopifyOrdersTemplate() *RawTable {
	return buildTemplate(FormatShopifyOrders, nil)
}

func InventoryTemplate() *RawTable {
	return buildTemplate(FormatTemplate,
		nil,
		map[string]string{
			"name":               "Cotton Hoodie",
			"sku":                "CH-002",
			"category":           "Hoodies",
			"stock":              "40",
			"forecastedQuantity": "40",
			"sellingPrice":       "750",
			"cost":               "420",
			"sizes":              "M, L, XL",
			"colors":             "Black",
			"description":        "Brushed cotton",
		},
	)
}

// buildTemplate renders the example row of a format followed by one row per
// override map, each starting from the column examples.
func buildTemplate(id FormatID, overrides ...map[string]string) *RawTable {
	f, err := LookupFormat(string(id))
	if err != nil {
		return &RawTable{}
	}
	cols := TemplateColumns(f)

	table := &RawTable{Header: make([]string, len(cols)), HeaderRow: 1}
	for i, col := range cols {
		table.Header[i] = col.Header
	}
	for _, override := range overrides {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = col.Example
			if v, ok := override[col.Field]; ok {
				row[i] = v
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
