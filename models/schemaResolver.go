package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/campuscash/collections_backend/config"
)

// TenantSchemaFlag is the registry's record of which schema convention a
// tenant database uses. The registry is operator-owned and read-only here;
// only the backfill tool writes it.
type TenantSchemaFlag struct {
	DbName    string    `gorm:"column:db_name;primaryKey"`
	UsesV2    bool      `gorm:"column:uses_v2"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (TenantSchemaFlag) TableName() string {
	return "tenant_schema_flags"
}

// ResolveSchemaVersion picks the schema convention for this request.
// Resolution order, first success wins:
//  1. explicit hint on the descriptor (no I/O)
//  2. registry flag keyed by tenant db name
//  3. live introspection of the tenant's transaction table
//
// Registry and introspection failures are logged and non-fatal; introspection
// failure defaults to V2. Never returns an error: a report request should not
// die because the version could not be confirmed.
func ResolveSchemaVersion(ctx context.Context, tenantDb *gorm.DB, desc *TenantDescriptor) SchemaVersion {
	if desc.SchemaVersionHint != nil && desc.SchemaVersionHint.Valid() {
		return *desc.SchemaVersionHint
	}

	if version, ok := lookupRegistryVersion(ctx, desc.DbName); ok {
		return version
	}

	return IntrospectSchemaVersion(ctx, tenantDb)
}

func lookupRegistryVersion(ctx context.Context, dbName string) (SchemaVersion, bool) {
	registry := config.GetRegistryDB()
	if registry == nil {
		return "", false
	}

	var flag TenantSchemaFlag
	err := registry.WithContext(ctx).Where("db_name = ?", dbName).First(&flag).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			config.LogError(config.GetLogger(), "models", "lookupRegistryVersion", "tenant_schema_flags", dbName, err)
		}
		return "", false
	}
	if flag.UsesV2 {
		return SchemaVersionV2, true
	}
	return SchemaVersionV1, true
}

// IntrospectSchemaVersion probes for the V2-only change_amount column on the
// tenant's transaction table. Absence implies V1; any probe failure falls back
// to V2, the terminal default.
func IntrospectSchemaVersion(ctx context.Context, tenantDb *gorm.DB) SchemaVersion {
	var count int64
	err := tenantDb.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME = 'transactions'
		  AND COLUMN_NAME = 'change_amount'
	`).Scan(&count).Error
	if err != nil {
		config.LogError(config.GetLogger(), "models", "IntrospectSchemaVersion", "information_schema", nil, err)
		return SchemaVersionV2
	}
	if count > 0 {
		return SchemaVersionV2
	}
	return SchemaVersionV1
}
