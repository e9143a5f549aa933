package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campuscash/collections_backend/models"
)

func collectionsColumns() []string {
	return []string{
		"id", "or_number", "transaction_date", "amount_paid", "change_amount",
		"payment_type_id", "payment_type_label", "line_item_id",
		"fee_classification_id", "classification_label", "particulars", "amount",
	}
}

// Both query shapes must populate the same RawLedgerRow fields; only the
// source tables differ. Run the identical row fixture through each.
func TestFetchCollectionsPopulatesEquivalentFields(t *testing.T) {
	when := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	for _, version := range []models.SchemaVersion{models.SchemaVersionV1, models.SchemaVersionV2} {
		db, mock := newMockTenantDB(t)
		mock.ExpectQuery(`(?s)SELECT.*FROM\s+transactions t`).
			WillReturnRows(sqlmock.NewRows(collectionsColumns()).
				AddRow(int64(1), "OR-1001", when, "500.00", "0.00", 1, "Cash", int64(11), 2, "Tuition Fees", "Tuition", "200.00").
				AddRow(int64(1), "OR-1001", when, "500.00", "0.00", 1, "Cash", int64(12), 3, "Misc Fees", "ID Card", "250.00"))

		queries := models.QueriesFor(version)
		rows, err := queries.FetchCollections(context.Background(), db, &models.LedgerFilter{
			DateFrom: "2025-06-01",
			DateTo:   "2025-06-30",
		})
		require.NoError(t, err, "version %s", version)
		require.Len(t, rows, 2)

		first := rows[0]
		require.EqualValues(t, 1, first.TransactionKey)
		require.Equal(t, "OR-1001", first.OrNumber)
		require.True(t, first.AmountPaid.Equal(d("500")))
		require.True(t, first.ChangeAmount.IsZero())
		require.Equal(t, "Cash", first.PaymentTypeLabel)
		require.NotNil(t, first.LineItemId)
		require.EqualValues(t, 11, *first.LineItemId)
		require.Equal(t, "Tuition Fees", first.ClassificationLabel)
		require.True(t, first.Amount.Equal(d("200")))
		require.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestFetchCollectionsHeaderOnlyRowHasNilLineItem(t *testing.T) {
	when := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

	db, mock := newMockTenantDB(t)
	mock.ExpectQuery(`(?s)SELECT.*FROM\s+transactions t`).
		WillReturnRows(sqlmock.NewRows(collectionsColumns()).
			AddRow(int64(9), "OR-2001", when, "75.00", "0.00", 1, "Cash", nil, 0, "", "", "0.00"))

	queries := models.QueriesFor(models.SchemaVersionV2)
	rows, err := queries.FetchCollections(context.Background(), db, &models.LedgerFilter{
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-30",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].LineItemId)
}

func TestFetchCollectionsQueryFailureIsQueryError(t *testing.T) {
	db, mock := newMockTenantDB(t)
	mock.ExpectQuery(`(?s)SELECT.*FROM\s+transactions t`).
		WillReturnError(context.DeadlineExceeded)

	queries := models.QueriesFor(models.SchemaVersionV2)
	_, err := queries.FetchCollections(context.Background(), db, &models.LedgerFilter{
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-30",
	})
	require.Error(t, err)
}

func TestFetchReceivablesScansBalances(t *testing.T) {
	for _, version := range []models.SchemaVersion{models.SchemaVersionV1, models.SchemaVersionV2} {
		db, mock := newMockTenantDB(t)
		mock.ExpectQuery(`(?s)SELECT.*balance`).
			WillReturnRows(sqlmock.NewRows([]string{"student_id", "name", "balance"}).
				AddRow(int64(42), "Dela Cruz, Juan", "1500.50").
				AddRow(int64(43), "Reyes, Maria", "980.00"))

		queries := models.QueriesFor(version)
		balances, err := queries.FetchReceivables(context.Background(), db)
		require.NoError(t, err, "version %s", version)
		require.Len(t, balances, 2)
		require.EqualValues(t, 42, balances[0].StudentId)
		require.True(t, balances[0].Balance.Equal(d("1500.50")))
	}
}
