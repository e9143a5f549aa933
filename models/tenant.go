package models

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuscash/collections_backend/utils"
)

// TenantConn is a request-scoped connection to one tenant's data store.
// Callers must Close it on every exit path; it is never pooled across
// requests.
type TenantConn struct {
	db      *gorm.DB
	sqlDB   *sql.DB
	Version SchemaVersion
	DbName  string
}

func (c *TenantConn) DB() *gorm.DB { return c.db }

func (c *TenantConn) Close() error {
	if c == nil || c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

func tenantDSN(desc *TenantDescriptor) string {
	port := desc.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=5s&readTimeout=60s&writeTimeout=60s",
		desc.Username,
		desc.Password,
		desc.Host,
		port,
		desc.DbName,
	)
}

// OpenTenant opens the tenant connection and resolves its schema version in
// one step, so every downstream query targets the right table shape. On
// failure the partially opened connection is closed before returning.
func OpenTenant(ctx context.Context, desc *TenantDescriptor) (*TenantConn, error) {
	db, err := gorm.Open(mysql.Open(tenantDSN(desc)), tenantGormConfig())
	if err != nil {
		return nil, utils.NewConnectionError(desc.Host, desc.DbName, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, utils.NewConnectionError(desc.Host, desc.DbName, err)
	}
	// One request, one connection. The pipeline is strictly sequential so a
	// single connection suffices; a second is headroom for the optional
	// sub-queries, never for parallel use.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, utils.NewConnectionError(desc.Host, desc.DbName, err)
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("tenant connected but failed to install otelgorm plugin: %v", pluginErr)
	}

	version := ResolveSchemaVersion(ctx, db, desc)

	return &TenantConn{
		db:      db,
		sqlDB:   sqlDB,
		Version: version,
		DbName:  desc.DbName,
	}, nil
}

func tenantGormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				Colorful:      false,
				LogLevel:      logger.Error,
				SlowThreshold: time.Second,
			},
		),
	}
}
