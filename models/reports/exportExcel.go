package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildCollectionsWorkbook renders a collections report as an XLSX workbook:
// one summary sheet plus the by-day and by-item rollups. Values are written
// from the already-rounded response, so the spreadsheet matches the JSON
// output exactly.
func BuildCollectionsWorkbook(resp *CollectionsReportResponse) (*excelize.File, error) {
	f := excelize.NewFile()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Total Collections", resp.Summary.TotalCollections.String()},
		{"Total Transactions", resp.Summary.TotalTransactions},
		{"Total Items", resp.Summary.TotalItems},
		{"Total Overpayment", resp.Summary.TotalOverpayment.String()},
		{"Overpayment Count", resp.Summary.OverpaymentCount},
		{"Average Per Transaction", resp.Summary.AveragePerTransaction.String()},
		{"Average Per Item", resp.Summary.AveragePerItem.String()},
	}
	for i, row := range summaryRows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const daySheet = "By Day"
	if _, err := f.NewSheet(daySheet); err != nil {
		return nil, err
	}
	dayHeader := []interface{}{"Date", "Amount", "Transactions", "Overpayment"}
	if err := f.SetSheetRow(daySheet, "A1", &dayHeader); err != nil {
		return nil, err
	}
	for i, bucket := range resp.ByDay {
		row := []interface{}{bucket.Key, bucket.TotalAmount.String(), bucket.Count, bucket.OverpaymentAmount.String()}
		if err := f.SetSheetRow(daySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	const itemSheet = "By Item"
	if _, err := f.NewSheet(itemSheet); err != nil {
		return nil, err
	}
	itemHeader := []interface{}{"Item", "Amount", "Items"}
	if err := f.SetSheetRow(itemSheet, "A1", &itemHeader); err != nil {
		return nil, err
	}
	for i, bucket := range resp.ByItem {
		row := []interface{}{bucket.Key, bucket.TotalAmount.String(), bucket.Count}
		if err := f.SetSheetRow(itemSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
