package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	registryDb *gorm.DB
)

// GetRegistryDB returns the operator's own registry database. It holds the
// per-tenant schema-version flags and nothing else tenant-owned. Tenant ledger
// data is NEVER read through this handle; each report request opens its own
// connection from the request's TenantDescriptor.
func GetRegistryDB() *gorm.DB {
	return registryDb
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT block startup in init() waiting for DB.
	// The container must start listening on $PORT quickly.
}

// ConnectRegistryWithRetry connects the registry database and sets the global
// handle. Call this from main() AFTER the HTTP server is listening. Report
// requests tolerate a nil registry (resolution falls through to introspection).
func ConnectRegistryWithRetry() {
	dbUser := os.Getenv("REGISTRY_DB_USER")
	dbPassword := os.Getenv("REGISTRY_DB_PASSWORD")
	dbHost := os.Getenv("REGISTRY_DB_HOST")
	dbPort := os.Getenv("REGISTRY_DB_PORT")
	dbName := os.Getenv("REGISTRY_DB_NAME")

	network := "tcp"
	address := fmt.Sprintf("%s:%s", dbHost, dbPort)

	// Cloud SQL Auth Proxy exposes a Unix domain socket; detect it by path.
	if strings.HasPrefix(dbHost, "/cloudsql/") {
		network = "unix"
		address = dbHost
	}

	dsn := fmt.Sprintf("%s:%s@%s(%s)/%s?parseTime=true",
		dbUser,
		dbPassword,
		network,
		address,
		dbName,
	)

	var attempt int
	for {
		attempt++
		var err error
		registryDb, err = gorm.Open(mysql.Open(dsn), initConfig())
		if err == nil {
			if sqlDB, derr := registryDb.DB(); derr == nil && sqlDB != nil {
				maxOpen := IntFromEnv("REGISTRY_DB_MAX_OPEN_CONNS", 10)
				maxIdle := IntFromEnv("REGISTRY_DB_MAX_IDLE_CONNS", 5)
				connMaxLife := time.Duration(IntFromEnv("REGISTRY_DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second

				if maxOpen > 0 {
					sqlDB.SetMaxOpenConns(maxOpen)
				}
				if maxIdle >= 0 {
					sqlDB.SetMaxIdleConns(maxIdle)
				}
				if connMaxLife > 0 {
					sqlDB.SetConnMaxLifetime(connMaxLife)
				}
			}

			if pluginErr := registryDb.Use(otelgorm.NewPlugin()); pluginErr != nil {
				log.Printf("registry connected but failed to install otelgorm plugin: %v", pluginErr)
			}
			log.Printf("connected to registry database (attempt=%d)", attempt)
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect registry database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func IntFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

func initNamingStrategy() schema.NamingStrategy {
	return schema.NamingStrategy{
		SingularTable: false,
	}
}
