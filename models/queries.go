package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campuscash/collections_backend/utils"
)

// LedgerQueries is the single fork point between the two schema conventions.
// The resolver picks an implementation once per request; call sites never
// re-derive the version. Both implementations populate identical RawLedgerRow
// fields and honor the same ordering contract: rows of one transaction are
// contiguous, tie-broken by ascending line-item id, so the "first item" of a
// transaction is reproducible across calls.
type LedgerQueries interface {
	Version() SchemaVersion
	FetchCollections(ctx context.Context, db *gorm.DB, filter *LedgerFilter) ([]RawLedgerRow, error)
	FetchReceivables(ctx context.Context, db *gorm.DB) ([]ReceivableBalance, error)
}

func QueriesFor(version SchemaVersion) LedgerQueries {
	if version == SchemaVersionV1 {
		return v1Queries{}
	}
	return v2Queries{}
}

type v1Queries struct{}
type v2Queries struct{}

func (v1Queries) Version() SchemaVersion { return SchemaVersionV1 }
func (v2Queries) Version() SchemaVersion { return SchemaVersionV2 }

// statusClause maps the status filter to its WHERE fragment. The three
// classes are mutually exclusive; no filter means "everything not cancelled".
func statusClause(status *TransactionStatus) string {
	if status == nil {
		return "AND t.is_cancelled = 0"
	}
	switch *status {
	case TransactionStatusPosted:
		return "AND t.is_cancelled = 0 AND t.is_posted = 1"
	case TransactionStatusCancelled:
		return "AND t.is_cancelled = 1"
	case TransactionStatusPending:
		return "AND t.is_cancelled = 0 AND t.is_posted = 0"
	}
	return "AND t.is_cancelled = 0"
}

func collectionsArgs(filter *LedgerFilter) (string, []interface{}, error) {
	from, to, err := filter.Range()
	if err != nil {
		return "", nil, err
	}
	extra := ""
	args := []interface{}{from, to}
	if filter.PaymentTypeId != nil {
		extra += " AND t.payment_type_id = ?"
		args = append(args, *filter.PaymentTypeId)
	}
	if filter.TerminalId != nil {
		extra += " AND t.terminal_id = ?"
		args = append(args, *filter.TerminalId)
	}
	return extra, args, nil
}

func (v1Queries) FetchCollections(ctx context.Context, db *gorm.DB, filter *LedgerFilter) ([]RawLedgerRow, error) {
	// V1 has no change_amount column and keeps the payment label in
	// payment_modes. LEFT JOIN keeps zero-item transactions visible.
	query := `
SELECT
    t.id,
    COALESCE(t.or_number, ''),
    t.transaction_date,
    COALESCE(t.amount_paid, 0),
    0 AS change_amount,
    COALESCE(t.payment_type_id, 0),
    COALESCE(pm.name, ''),
    td.id AS line_item_id,
    COALESCE(td.fee_classification_id, 0),
    COALESCE(fc.name, ''),
    COALESCE(td.particulars, ''),
    COALESCE(td.amount, 0)
FROM
    transactions t
    LEFT JOIN transaction_details td ON td.transaction_id = t.id
    LEFT JOIN payment_modes pm ON pm.id = t.payment_type_id
    LEFT JOIN fee_classifications fc ON fc.id = td.fee_classification_id
WHERE
    t.transaction_date BETWEEN ? AND ?
    %s
    %s
ORDER BY
    t.transaction_date, t.id, td.id
`
	return scanCollections(ctx, db, query, filter)
}

func (v2Queries) FetchCollections(ctx context.Context, db *gorm.DB, filter *LedgerFilter) ([]RawLedgerRow, error) {
	query := `
SELECT
    t.id,
    COALESCE(t.or_number, ''),
    t.transaction_date,
    COALESCE(t.amount_paid, 0),
    COALESCE(t.change_amount, 0),
    COALESCE(t.payment_type_id, 0),
    COALESCE(pt.name, ''),
    td.id AS line_item_id,
    COALESCE(td.fee_classification_id, 0),
    COALESCE(fc.name, ''),
    COALESCE(td.particulars, ''),
    COALESCE(td.amount, 0)
FROM
    transactions t
    LEFT JOIN transaction_details td ON td.transaction_id = t.id
    LEFT JOIN payment_types pt ON pt.id = t.payment_type_id
    LEFT JOIN fee_classifications fc ON fc.id = td.fee_classification_id
WHERE
    t.transaction_date BETWEEN ? AND ?
    %s
    %s
ORDER BY
    t.transaction_date, t.id, td.id
`
	return scanCollections(ctx, db, query, filter)
}

func scanCollections(ctx context.Context, db *gorm.DB, queryTemplate string, filter *LedgerFilter) ([]RawLedgerRow, error) {
	extra, args, err := collectionsArgs(filter)
	if err != nil {
		return nil, utils.NewValidationError("filters", "invalid date range")
	}
	query := fmt.Sprintf(queryTemplate, extra, statusClause(filter.Status))

	rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, utils.NewQueryError("collections", err)
	}
	defer rows.Close()

	var result []RawLedgerRow
	for rows.Next() {
		var row RawLedgerRow
		var lineItemId sql.NullInt64
		err := rows.Scan(
			&row.TransactionKey,
			&row.OrNumber,
			&row.TransactionTime,
			&row.AmountPaid,
			&row.ChangeAmount,
			&row.PaymentTypeId,
			&row.PaymentTypeLabel,
			&lineItemId,
			&row.ClassificationId,
			&row.ClassificationLabel,
			&row.Particulars,
			&row.Amount,
		)
		if err != nil {
			return nil, utils.NewQueryError("collections", err)
		}
		if lineItemId.Valid {
			id := lineItemId.Int64
			row.LineItemId = &id
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewQueryError("collections", err)
	}
	return result, nil
}

func (v1Queries) FetchReceivables(ctx context.Context, db *gorm.DB) ([]ReceivableBalance, error) {
	// V1 receivables come from the running ledger-balance table.
	query := `
SELECT
    lb.student_id,
    COALESCE(s.name, ''),
    COALESCE(SUM(lb.debit), 0) - COALESCE(SUM(lb.credit), 0) AS balance
FROM
    ledger_balances lb
    LEFT JOIN students s ON s.id = lb.student_id
GROUP BY
    lb.student_id, s.name
HAVING
    balance > 0
ORDER BY
    balance DESC, lb.student_id
`
	return scanReceivables(ctx, db, query)
}

func (v2Queries) FetchReceivables(ctx context.Context, db *gorm.DB) ([]ReceivableBalance, error) {
	// V2 keeps the outstanding balance directly on the enrollment row.
	query := `
SELECT
    e.student_id,
    COALESCE(s.name, ''),
    COALESCE(e.balance, 0) AS balance
FROM
    enrollments e
    LEFT JOIN students s ON s.id = e.student_id
WHERE
    COALESCE(e.balance, 0) > 0
ORDER BY
    balance DESC, e.student_id
`
	return scanReceivables(ctx, db, query)
}

func scanReceivables(ctx context.Context, db *gorm.DB, query string) ([]ReceivableBalance, error) {
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, utils.NewQueryError("receivables", err)
	}
	defer rows.Close()

	var result []ReceivableBalance
	for rows.Next() {
		var rec ReceivableBalance
		if err := rows.Scan(&rec.StudentId, &rec.StudentName, &rec.Balance); err != nil {
			return nil, utils.NewQueryError("receivables", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewQueryError("receivables", err)
	}
	return result, nil
}

// FetchLegacyAssessmentTotals reads the pre-migration assessments table. Not
// every tenant carries it over, so the caller treats a failure here as an
// optional degradation, not a report failure.
func FetchLegacyAssessmentTotals(ctx context.Context, db *gorm.DB) (decimal.Decimal, int64, error) {
	query := `
SELECT
    COALESCE(SUM(la.amount), 0),
    COUNT(*)
FROM
    legacy_assessments la
WHERE
    la.is_settled = 0
`
	row := db.WithContext(ctx).Raw(query).Row()
	var total decimal.Decimal
	var count int64
	if err := row.Scan(&total, &count); err != nil {
		return decimal.Zero, 0, utils.NewOptionalQueryError("legacy_assessments", err)
	}
	return total, count, nil
}
