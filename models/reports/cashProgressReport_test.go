package reports_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuscash/collections_backend/models"
	"github.com/campuscash/collections_backend/models/reports"
)

func TestCashProgressCumulativeAscending(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(3, day(5), "Cash", item(31, "", "Tuition", "300")),
		txn(1, day(2), "Cash", item(11, "", "Tuition", "100")),
		txn(2, day(2), "Cash", item(21, "", "Misc", "50.25")),
	}

	resp := reports.BuildCashProgressResponse(txns)
	require.Len(t, resp.Entries, 2)

	require.Equal(t, "2025-06-02", resp.Entries[0].Date)
	require.Equal(t, "150.25", resp.Entries[0].Collected.String())
	require.Equal(t, "150.25", resp.Entries[0].Cumulative.String())
	require.EqualValues(t, 2, resp.Entries[0].TransactionCount)

	require.Equal(t, "2025-06-05", resp.Entries[1].Date)
	require.Equal(t, "300", resp.Entries[1].Collected.String())
	require.Equal(t, "450.25", resp.Entries[1].Cumulative.String())

	require.Equal(t, "450.25", resp.TotalCollected.String())
}

func TestCashProgressEmptyRange(t *testing.T) {
	resp := reports.BuildCashProgressResponse(nil)
	require.Empty(t, resp.Entries)
	require.True(t, resp.TotalCollected.IsZero())
}

func TestCollectionsWorkbookSheets(t *testing.T) {
	txns := []*models.ReconciledTransaction{
		txn(1, day(2), "Cash", item(11, "Tuition", "Tuition", "100")),
	}
	resp := reports.BuildCollectionsResponse(txns, models.ReconcileTotals{})

	workbook, err := reports.BuildCollectionsWorkbook(resp)
	require.NoError(t, err)
	require.Contains(t, workbook.GetSheetList(), "Summary")
	require.Contains(t, workbook.GetSheetList(), "By Day")
	require.Contains(t, workbook.GetSheetList(), "By Item")

	value, err := workbook.GetCellValue("By Day", "A2")
	require.NoError(t, err)
	require.Equal(t, "2025-06-02", value)
}
