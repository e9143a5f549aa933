package utils

import (
	"context"

	"github.com/campuscash/collections_backend/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyTenantDb      = appctx.ContextKeyTenantDb
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetTenantDbFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyTenantDb)
}

func SetTenantDbInContext(ctx context.Context, dbName string) context.Context {
	return appctx.Set(ctx, ContextKeyTenantDb, dbName)
}
