package reports

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/campuscash/collections_backend/config"
	"github.com/campuscash/collections_backend/models"
)

var tracer = otel.Tracer("collections_backend/reports")

// GetCollectionsReport runs the whole pipeline for one request: validate,
// open the tenant connection, fetch, reconcile, aggregate. The connection is
// closed on every exit path. Everything here is request-local; nothing is
// shared across calls except the optional redis cache.
func GetCollectionsReport(ctx context.Context, req *models.ReportRequest) (*CollectionsReportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reports.collections")
	defer span.End()
	started := time.Now()
	defer logSlowReport(ctx, "collections", started, map[string]any{"db": req.Tenant.DbName})

	cacheKey := reportCacheKey("collections", &req.Tenant, &req.Filters)
	if reportCacheEnabled() {
		var cached CollectionsReportResponse
		if found, err := cacheGet(cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	conn, err := models.OpenTenant(ctx, &req.Tenant)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	queries := models.QueriesFor(conn.Version)
	rows, err := queries.FetchCollections(ctx, conn.DB(), &req.Filters)
	if err != nil {
		config.LogError(config.GetLogger(), "reports", "GetCollectionsReport", "fetch", req.Tenant.DbName, err)
		return nil, err
	}

	txns, totals := models.ReconcileRows(rows)
	resp := BuildCollectionsResponse(txns, totals)

	if reportCacheEnabled() {
		if err := cacheSet(cacheKey, resp, reportCacheTTL()); err != nil {
			config.LogError(config.GetLogger(), "reports", "GetCollectionsReport", "cacheSet", cacheKey, err)
		}
	}

	return resp, nil
}
