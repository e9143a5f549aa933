package reports_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/campuscash/collections_backend/models"
	"github.com/campuscash/collections_backend/models/reports"
)

func d(value string) decimal.Decimal {
	out, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return out
}

func day(dayOfMonth int) time.Time {
	return time.Date(2025, 6, dayOfMonth, 9, 0, 0, 0, time.UTC)
}

func txn(key int64, when time.Time, paymentType string, items ...models.ReconciledItem) *models.ReconciledTransaction {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PaidAmount)
	}
	return &models.ReconciledTransaction{
		TransactionKey: key,
		Timestamp:      when,
		AmountPaid:     total,
		PaymentType:    paymentType,
		Items:          items,
	}
}

func item(id int64, classification, particulars, amount string) models.ReconciledItem {
	return models.ReconciledItem{
		LineItemId:          id,
		ClassificationLabel: classification,
		Particulars:         particulars,
		Amount:              d(amount),
		PaidAmount:          d(amount),
	}
}

func TestByDayCountsDistinctTransactions(t *testing.T) {
	// Two transactions on the 2nd (one with two items) and one on the 5th:
	// ascending date order, per-day counts of transactions, not item rows.
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash", item(11, "Tuition", "Tuition", "100"), item(12, "Misc", "ID Card", "50")),
		txn(2, day(2), "Cash", item(21, "Tuition", "Tuition", "200")),
		txn(3, day(5), "Cash", item(31, "Tuition", "Tuition", "300")),
	}

	resp := reports.BuildCollectionsResponse(txns, models.ReconcileTotals{})
	require.Len(t, resp.ByDay, 2)
	require.Equal(t, "2025-06-02", resp.ByDay[0].Key)
	require.Equal(t, "2025-06-05", resp.ByDay[1].Key)
	require.EqualValues(t, 2, resp.ByDay[0].Count, "distinct transactions, not 3 item rows")
	require.EqualValues(t, 1, resp.ByDay[1].Count)
	require.True(t, resp.ByDay[0].TotalAmount.Equal(d("350")))
}

func TestRoundingHappensOnceAtEmission(t *testing.T) {
	// Three 0.005 items: naive per-item rounding gives 0.01*3 = 0.03; the
	// single rounding of the exact 0.015 sum gives 0.02.
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash",
			item(11, "", "Fines", "0.005"),
			item(12, "", "Fines", "0.005"),
			item(13, "", "Fines", "0.005"),
		),
	}

	resp := reports.BuildCollectionsResponse(txns, models.ReconcileTotals{})
	require.Len(t, resp.ByItem, 1)
	require.Equal(t, "0.02", resp.ByItem[0].TotalAmount.String())
	require.Equal(t, "0.02", resp.Summary.TotalCollections.String())
}

func TestBlankParticularsCollapseToUnspecified(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash",
			item(11, "", "", "10"),
			item(12, "", "   ", "20"),
			item(13, "", "\t", "30"),
		),
	}

	resp := reports.BuildCollectionsResponse(txns, models.ReconcileTotals{})
	require.Len(t, resp.ByItem, 1)
	require.Equal(t, "Unspecified", resp.ByItem[0].Key)
	require.True(t, resp.ByItem[0].TotalAmount.Equal(d("60")))
	require.EqualValues(t, 3, resp.ByItem[0].Count, "item rollup counts item rows")
}

func TestClassificationFallsBackToParticulars(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash",
			item(11, "Tuition Fees", "whatever", "100"),
			item(12, "", "Library Fine", "20"),
			item(13, "", "", "5"),
		),
	}

	resp := reports.BuildCollectionsResponse(txns, models.ReconcileTotals{})
	keys := make(map[string]bool)
	for _, bucket := range resp.ByClassification {
		keys[bucket.Key] = true
	}
	require.True(t, keys["Tuition Fees"])
	require.True(t, keys["Library Fine"])
	require.True(t, keys["Unspecified"])
}

func TestValueRollupsSortDescendingByTotal(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash", item(11, "", "Small", "10")),
		txn(2, day(2), "GCash", item(21, "", "Large", "500")),
		txn(3, day(3), "Cheque", item(31, "", "Medium", "100")),
	}

	resp := reports.BuildCollectionsResponse(txns, models.ReconcileTotals{})
	require.Equal(t, "Large", resp.ByItem[0].Key)
	require.Equal(t, "Medium", resp.ByItem[1].Key)
	require.Equal(t, "Small", resp.ByItem[2].Key)
	require.Equal(t, "GCash", resp.ByPaymentType[0].Key)
}

func TestSummaryTotalsAndAverages(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash", item(11, "", "Tuition", "100"), item(12, "", "Misc", "50")),
		txn(2, day(3), "Cash", item(21, "", "Tuition", "250")),
	}
	totals := models.ReconcileTotals{TotalOverpayment: d("50"), OverpaymentCount: 1}

	resp := reports.BuildCollectionsResponse(txns, totals)
	require.Equal(t, "400", resp.Summary.TotalCollections.String())
	require.EqualValues(t, 2, resp.Summary.TotalTransactions)
	require.EqualValues(t, 3, resp.Summary.TotalItems)
	require.Equal(t, "50", resp.Summary.TotalOverpayment.String())
	require.EqualValues(t, 1, resp.Summary.OverpaymentCount)
	require.Equal(t, "200", resp.Summary.AveragePerTransaction.String())
	require.Equal(t, "133.33", resp.Summary.AveragePerItem.String())
}

func TestSummaryAveragesZeroWhenEmpty(t *testing.T) {
	resp := reports.BuildCollectionsResponse(nil, models.ReconcileTotals{})
	require.True(t, resp.Summary.AveragePerTransaction.IsZero())
	require.True(t, resp.Summary.AveragePerItem.IsZero())
	require.EqualValues(t, 0, resp.Summary.TotalTransactions)
	require.Empty(t, resp.ByDay)
}

func TestGlobalConservation(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash", item(11, "", "Tuition", "200"), item(12, "", "Misc", "250")),
		txn(2, day(3), "GCash", item(21, "", "Tuition", "120.50")),
	}
	txns[0].Items[0].PaidAmount = d("250") // carries a 50 overpayment
	txns[0].Overpayment = d("50")
	totals := models.ReconcileTotals{TotalOverpayment: d("50"), OverpaymentCount: 1}

	resp := reports.BuildCollectionsResponse(txns, totals)

	sumPaid := decimal.Zero
	for _, transaction := range txns {
		for _, it := range transaction.Items {
			sumPaid = sumPaid.Add(it.PaidAmount)
		}
	}
	require.True(t, resp.Summary.TotalCollections.Equal(sumPaid.Round(2)))
	require.True(t, resp.Summary.TotalOverpayment.Equal(d("50")))
}

func TestBuildCollectionsResponseIdempotent(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash", item(11, "Tuition", "Tuition", "100"), item(12, "", "ID Card", "50")),
		txn(2, day(5), "GCash", item(21, "", "", "75.25")),
	}
	totals := models.ReconcileTotals{TotalOverpayment: d("10"), OverpaymentCount: 1}

	first, err := json.Marshal(reports.BuildCollectionsResponse(txns, totals))
	require.NoError(t, err)
	second, err := json.Marshal(reports.BuildCollectionsResponse(txns, totals))
	require.NoError(t, err)
	require.Equal(t, first, second)
}
