package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"masareefy-import-service/internal/importer"
	"masareefy-import-service/internal/models"
)

const (
	SKUCacheTTL = 2 * time.Minute // SKU set used by import previews

	// trackingLookupChunk bounds the size of IN (...) lists
	trackingLookupChunk = 500
)

// ImportRepositoryInterface is what the import workflow needs from storage.
type ImportRepositoryInterface interface {
	ListInventorySKUs(ctx context.Context, tenantID string) ([]string, error)
	ExistingTrackingNumbers(ctx context.Context, tenantID, provider string, keys []string) ([]string, error)
	ResourceUsage(ctx context.Context, tenantID string, resource importer.Resource) (current int, limit int, err error)
	CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	CreateRevenueEntry(ctx context.Context, entry *models.RevenueEntry) error
	CreateShipment(ctx context.Context, shipment *models.ShipmentRecord) error
	RecordImport(ctx context.Context, history *models.ImportHistory) error
}

type ImportRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

var _ ImportRepositoryInterface = (*ImportRepository)(nil)

func NewImportRepository(db *gorm.DB, redisClient *redis.Client) *ImportRepository {
	repo := &ImportRepository{
		db:    db,
		redis: redisClient,
	}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 1000,
			L1TTL:      15 * time.Second,
			DefaultTTL: SKUCacheTTL,
			KeyPrefix:  "masareefy:inventory:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

func skuCacheKey(tenantID string) string {
	return fmt.Sprintf("skus:%s", tenantID)
}

// RedisHealth returns the health status of Redis connection
func (r *ImportRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// CacheStats returns cache statistics of the SKU cache
func (r *ImportRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// ListInventorySKUs returns every SKU the tenant already stocks.
func (r *ImportRepository) ListInventorySKUs(ctx context.Context, tenantID string) ([]string, error) {
	load := func() ([]string, error) {
		var skus []string
		err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
			Where("tenant_id = ?", tenantID).
			Pluck("sku", &skus).Error
		return skus, err
	}

	if r.cache == nil {
		return load()
	}

	var skus []string
	err := r.cache.GetOrSetJSON(ctx, skuCacheKey(tenantID), &skus, SKUCacheTTL, func() (any, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	return skus, nil
}

// ExistingTrackingNumbers returns the lower-cased keys that were already imported
// for the provider.
func (r *ImportRepository) ExistingTrackingNumbers(ctx context.Context, tenantID, provider string, keys []string) ([]string, error) {
	var found []string
	for start := 0; start < len(keys); start += trackingLookupChunk {
		chunk := keys[start:min(start+trackingLookupChunk, len(keys))]
		lowered := make([]string, len(chunk))
		for i, k := range chunk {
			lowered[i] = strings.ToLower(strings.TrimSpace(k))
		}

		var existing []string
		err := r.db.WithContext(ctx).Model(&models.ShipmentRecord{}).
			Where("tenant_id = ? AND provider = ? AND LOWER(tracking_number) IN ?", tenantID, provider, lowered).
			Pluck("LOWER(tracking_number)", &existing).Error
		if err != nil {
			return nil, fmt.Errorf("failed to look up tracking numbers: %w", err)
		}
		found = append(found, existing...)
	}
	return found, nil
}

// ResourceUsage returns the current count and plan limit of a resource.
// The limit is -1 when the tenant has no plan row for it.
func (r *ImportRepository) ResourceUsage(ctx context.Context, tenantID string, resource importer.Resource) (int, int, error) {
	var model interface{}
	switch resource {
	case importer.ResourceInventoryItems:
		model = &models.InventoryItem{}
	case importer.ResourceRevenueEntries:
		model = &models.RevenueEntry{}
	default:
		return 0, importer.Unlimited, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count %s: %w", resource, err)
	}

	var limit models.PlanLimit
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND resource = ?", tenantID, string(resource)).First(&limit).Error
	if err == gorm.ErrRecordNotFound {
		return int(count), importer.Unlimited, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load plan limit: %w", err)
	}
	return int(count), limit.Limit, nil
}

func (r *ImportRepository) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return err
	}
	if r.cache != nil {
		_ = r.cache.Delete(ctx, skuCacheKey(item.TenantID))
	}
	return nil
}

func (r *ImportRepository) CreateRevenueEntry(ctx context.Context, entry *models.RevenueEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ImportRepository) CreateShipment(ctx context.Context, shipment *models.ShipmentRecord) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *ImportRepository) RecordImport(ctx context.Context, history *models.ImportHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}
