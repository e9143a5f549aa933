package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"gorm.io/gorm/clause"

	"github.com/campuscash/collections_backend/config"
	"github.com/campuscash/collections_backend/models"
	"github.com/campuscash/collections_backend/utils"
)

// Probes each tenant database for its schema convention and stores the result
// in the registry, so report requests can skip live introspection. Safe to
// re-run; rows are upserted.
func main() {
	host := flag.String("host", "", "Tenant MySQL host")
	port := flag.Int("port", 3306, "Tenant MySQL port")
	username := flag.String("username", "", "Tenant MySQL username")
	password := flag.String("password", "", "Tenant MySQL password")
	dbNames := flag.String("db-names", "", "Comma separated tenant database names to probe")
	dryRun := flag.Bool("dry-run", false, "Probe and print without writing the registry")
	flag.Parse()

	if strings.TrimSpace(*host) == "" || strings.TrimSpace(*username) == "" || strings.TrimSpace(*dbNames) == "" {
		fmt.Fprintln(os.Stderr, "usage: schema-registry-backfill -host ... -username ... -db-names db1,db2")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectRegistryWithRetry()
	config.ConnectRedisWithRetry()

	registry := config.GetRegistryDB()
	if registry == nil {
		fmt.Fprintln(os.Stderr, "registry database not initialized")
		os.Exit(1)
	}

	// One runner at a time. Without redis the guard is skipped; the upserts
	// are idempotent so a double run is wasteful, not harmful.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "schema-registry-backfill", 10*time.Minute, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			fmt.Fprintln(os.Stderr, "another backfill is already running")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to obtain backfill lock: %v\n", err)
		} else {
			defer lock.Release(ctx)
		}
	}

	var failed int
	for _, dbName := range utils.UniqueSlice(strings.Split(*dbNames, ",")) {
		dbName = strings.TrimSpace(dbName)
		if dbName == "" {
			continue
		}

		desc := &models.TenantDescriptor{
			Host:     *host,
			Port:     *port,
			DbName:   dbName,
			Username: *username,
			Password: *password,
		}
		conn, err := models.OpenTenant(ctx, desc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tenant %s: %v\n", dbName, err)
			failed++
			continue
		}
		// Introspect directly; the registry row being backfilled must come
		// from the tenant's actual tables, not from a stale flag.
		version := models.IntrospectSchemaVersion(ctx, conn.DB())
		conn.Close()

		fmt.Printf("tenant %s: %s\n", dbName, version)
		if *dryRun {
			continue
		}

		record := models.TenantSchemaFlag{
			DbName:    dbName,
			UsesV2:    version == models.SchemaVersionV2,
			UpdatedAt: time.Now().UTC(),
		}
		err = registry.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&record).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "tenant %s: failed to store flag: %v\n", dbName, err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
