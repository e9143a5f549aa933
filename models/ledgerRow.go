package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/campuscash/collections_backend/utils"
)

var validate = validator.New()

// TenantDescriptor addresses one school's own data store. Supplied on every
// request, never persisted here.
type TenantDescriptor struct {
	Host              string         `json:"host" validate:"required"`
	Port              int            `json:"port"`
	DbName            string         `json:"db_name" validate:"required"`
	Username          string         `json:"username" validate:"required"`
	Password          string         `json:"password"`
	SchemaVersionHint *SchemaVersion `json:"schema_version_hint,omitempty"`
}

// LedgerFilter narrows a ledger read. Dates are tenant-local calendar dates;
// the range is inclusive on both ends.
type LedgerFilter struct {
	DateFrom      string             `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo        string             `json:"date_to" validate:"required,datetime=2006-01-02"`
	PaymentTypeId *int               `json:"payment_type_id,omitempty"`
	TerminalId    *int               `json:"terminal_id,omitempty"`
	Status        *TransactionStatus `json:"status,omitempty"`
}

// Range expands the date strings to [from 00:00:00, to 23:59:59].
func (f *LedgerFilter) Range() (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", f.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse("2006-01-02", f.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to.Add(24*time.Hour - time.Second), nil
}

// ReportRequest is the shape the routing layer hands to the report engine.
type ReportRequest struct {
	Tenant  TenantDescriptor `json:"tenant"`
	Filters LedgerFilter     `json:"filters"`
}

// Validate rejects malformed requests before any connection is opened.
func (r *ReportRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return utils.NewValidationError(strings.ToLower(first.Field()), "missing or malformed value")
		}
		return utils.NewValidationError("", err.Error())
	}
	if r.Tenant.SchemaVersionHint != nil && !r.Tenant.SchemaVersionHint.Valid() {
		return utils.NewValidationError("schema_version_hint", "must be V1 or V2")
	}
	if r.Filters.Status != nil && !r.Filters.Status.Valid() {
		return utils.NewValidationError("status", "must be posted, cancelled or pending")
	}
	from, to, err := r.Filters.Range()
	if err != nil {
		return utils.NewValidationError("filters", "invalid date range")
	}
	if to.Before(from) {
		return utils.NewValidationError("date_to", "must not be earlier than date_from")
	}
	return nil
}

// TenantRequest is the shape of reports that need no ledger filter, only a
// tenant to read from.
type TenantRequest struct {
	Tenant TenantDescriptor `json:"tenant"`
}

func (r *TenantRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return utils.NewValidationError(strings.ToLower(first.Field()), "missing or malformed value")
		}
		return utils.NewValidationError("", err.Error())
	}
	if r.Tenant.SchemaVersionHint != nil && !r.Tenant.SchemaVersionHint.Valid() {
		return utils.NewValidationError("schema_version_hint", "must be V1 or V2")
	}
	return nil
}

// RawLedgerRow is one transaction header joined with one line item, exactly as
// fetched. LineItemId is nil for a transaction with no line items (the header
// still appears once so the transaction is not lost).
type RawLedgerRow struct {
	TransactionKey      int64
	OrNumber            string
	TransactionTime     time.Time
	AmountPaid          decimal.Decimal
	ChangeAmount        decimal.Decimal
	PaymentTypeId       int
	PaymentTypeLabel    string
	LineItemId          *int64
	ClassificationId    int
	ClassificationLabel string
	Particulars         string
	Amount              decimal.Decimal
}

// ReceivableBalance is one debtor's outstanding balance, schema-version
// agnostic: V1 derives it from the ledger-balance table, V2 reads it off the
// enrollment row.
type ReceivableBalance struct {
	StudentId   int64           `json:"studentId"`
	StudentName string          `json:"studentName"`
	Balance     decimal.Decimal `json:"balance"`
}
