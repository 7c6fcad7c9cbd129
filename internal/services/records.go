package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"masareefy-import-service/internal/importer"
	"masareefy-import-service/internal/models"
)

const uncategorized = "Uncategorized"

// Record builders map a normalized row onto the model its format targets.

func shipmentFromBosta(tenantID, provider string, importID uuid.UUID, r *importer.BostaShipmentRow) *models.ShipmentRecord {
	return &models.ShipmentRecord{
		TenantID:       tenantID,
		Provider:       provider,
		TrackingNumber: strings.TrimSpace(r.TrackingNumber),
		Status:         r.DeliveryState,
		State:          string(r.State),
		CODAmount:      r.CODAmount,
		ShippingFees:   r.ShippingFees,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		City:           r.City,
		Address:        r.Address,
		OrderReference: r.OrderReference,
		ShippedAt:      r.CreatedAt,
		DeliveredAt:    r.DeliveredAt,
		ImportID:       &importID,
	}
}

func shipmentFromShipblu(tenantID, provider string, importID uuid.UUID, r *importer.ShipbluTrackingRow) *models.ShipmentRecord {
	city := r.City
	if city == "" {
		city = r.Governorate
	}
	return &models.ShipmentRecord{
		TenantID:       tenantID,
		Provider:       provider,
		TrackingNumber: strings.TrimSpace(r.TrackingNumber),
		Status:         r.Status,
		State:          string(r.State),
		CODAmount:      r.CODAmount,
		ShippingFees:   r.ShippingFees,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		City:           city,
		Address:        r.Governorate,
		OrderReference: r.OrderReference,
		ShippedAt:      r.CreatedAt,
		DeliveredAt:    r.DeliveredAt,
		ImportID:       &importID,
	}
}

func itemFromShopifyProduct(tenantID string, importID uuid.UUID, r *importer.ShopifyProductRow) *models.InventoryItem {
	name := r.Title
	if r.Option1Value != "" && !strings.EqualFold(r.Option1Value, "default title") {
		name = fmt.Sprintf("%s - %s", r.Title, r.Option1Value)
	}
	category := r.ProductType
	if category == "" {
		category = uncategorized
	}
	return &models.InventoryItem{
		TenantID:     tenantID,
		SKU:          strings.TrimSpace(r.VariantSKU),
		Name:         name,
		Handle:       r.Handle,
		Category:     category,
		Quantity:     r.Quantity,
		SellingPrice: r.Price,
		CostPrice:    r.CostPerItem,
		ReorderLevel: importer.DefaultReorderLevel,
		Location:     importer.DefaultLocation,
		Supplier:     r.Vendor,
		Sizes:        models.StringList(r.Sizes),
		Colors:       models.StringList(r.Colors),
		Source:       string(importer.FormatShopifyProducts),
		ImportID:     &importID,
	}
}

func itemFromTemplate(tenantID string, importID uuid.UUID, r *importer.TemplateInventoryRow) *models.InventoryItem {
	return &models.InventoryItem{
		TenantID:     tenantID,
		SKU:          strings.TrimSpace(r.BaseSKU),
		Name:         r.Name,
		Category:     r.Category,
		Quantity:     r.Stock,
		SellingPrice: r.SellingPrice,
		CostPrice:    r.Cost,
		ReorderLevel: r.ReorderLevel,
		Location:     r.Location,
		Supplier:     r.Supplier,
		Description:  r.Description,
		Sizes:        models.StringList(r.Sizes),
		Colors:       models.StringList(r.Colors),
		Source:       string(importer.FormatTemplate),
		ImportID:     &importID,
	}
}

func revenueFromShopifyOrder(tenantID string, importID uuid.UUID, r *importer.ShopifyOrderRow) *models.RevenueEntry {
	return &models.RevenueEntry{
		TenantID:        tenantID,
		Source:          string(importer.FormatShopifyOrders),
		OrderName:       r.OrderName,
		LineItemName:    r.LineItemName,
		SKU:             strings.TrimSpace(r.LineItemSKU),
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		Amount:          r.LineTotal(),
		Currency:        r.Currency,
		FinancialStatus: r.FinancialStatus,
		PaymentMethod:   r.PaymentMethod,
		CustomerName:    r.BillingName,
		OrderedAt:       r.CreatedAt,
		ImportID:        &importID,
	}
}

// placeholderItem is created for an order line whose SKU is not stocked yet.
func placeholderItem(tenantID string, importID uuid.UUID, r *importer.ShopifyOrderRow) *models.InventoryItem {
	return &models.InventoryItem{
		TenantID:     tenantID,
		SKU:          strings.TrimSpace(r.LineItemSKU),
		Name:         r.LineItemName,
		Category:     uncategorized,
		SellingPrice: r.UnitPrice,
		ReorderLevel: importer.DefaultReorderLevel,
		Location:     importer.DefaultLocation,
		Source:       string(importer.FormatShopifyOrders),
		ImportID:     &importID,
	}
}
