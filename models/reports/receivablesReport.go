package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuscash/collections_backend/config"
	"github.com/campuscash/collections_backend/models"
	"github.com/campuscash/collections_backend/utils"
)

type ReceivablesReportResponse struct {
	TotalReceivables      decimal.Decimal            `json:"totalReceivables"`
	DebtorCount           int64                      `json:"debtorCount"`
	Debtors               []models.ReceivableBalance `json:"debtors"`
	LegacyAssessmentTotal decimal.Decimal            `json:"legacyAssessmentTotal"`
	LegacyAssessmentCount int64                      `json:"legacyAssessmentCount"`
}

// GetReceivablesReport reads outstanding balances through the schema-version
// fork: V1 sums the ledger-balance table, V2 reads the enrollment balance
// field. The legacy-assessments sub-total is optional: tenants migrated long
// ago dropped that table, so a failure there degrades to zero instead of
// failing the report. That leniency is specific to this sub-query; the main
// receivables read stays fatal.
func GetReceivablesReport(ctx context.Context, req *models.TenantRequest) (*ReceivablesReportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reports.receivables")
	defer span.End()
	started := time.Now()
	defer logSlowReport(ctx, "receivables", started, map[string]any{"db": req.Tenant.DbName})

	conn, err := models.OpenTenant(ctx, &req.Tenant)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	queries := models.QueriesFor(conn.Version)
	balances, err := queries.FetchReceivables(ctx, conn.DB())
	if err != nil {
		config.LogError(config.GetLogger(), "reports", "GetReceivablesReport", "fetch", req.Tenant.DbName, err)
		return nil, err
	}

	total := decimal.Zero
	debtors := make([]models.ReceivableBalance, 0, len(balances))
	for _, b := range balances {
		total = total.Add(b.Balance)
		b.Balance = utils.Round2(b.Balance)
		debtors = append(debtors, b)
	}

	resp := &ReceivablesReportResponse{
		TotalReceivables: utils.Round2(total),
		DebtorCount:      int64(len(debtors)),
		Debtors:          debtors,
	}

	legacyTotal, legacyCount, err := models.FetchLegacyAssessmentTotals(ctx, conn.DB())
	if err != nil {
		config.LogError(config.GetLogger(), "reports", "GetReceivablesReport", "legacy_assessments degraded to empty", req.Tenant.DbName, err)
	} else {
		resp.LegacyAssessmentTotal = utils.Round2(legacyTotal)
		resp.LegacyAssessmentCount = legacyCount
	}

	return resp, nil
}
