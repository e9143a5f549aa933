package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciledItem is one line item with the payment actually applied to it.
// PaidAmount differs from Amount only on the item carrying the transaction's
// overpayment.
type ReconciledItem struct {
	LineItemId          int64           `json:"lineItemId"`
	ClassificationId    int             `json:"classificationId"`
	ClassificationLabel string          `json:"classificationLabel"`
	Particulars         string          `json:"particulars"`
	Amount              decimal.Decimal `json:"amount"`
	PaidAmount          decimal.Decimal `json:"paidAmount"`
}

// ReconciledTransaction is one official receipt with its items and any
// overpayment. Items preserve fetch order; the first item defines where the
// overpayment lands.
type ReconciledTransaction struct {
	TransactionKey int64            `json:"transactionKey"`
	OrNumber       string           `json:"orNumber"`
	Timestamp      time.Time        `json:"timestamp"`
	AmountPaid     decimal.Decimal  `json:"amountPaid"`
	ChangeAmount   decimal.Decimal  `json:"changeAmount"`
	PaymentTypeId  int              `json:"paymentTypeId"`
	PaymentType    string           `json:"paymentType"`
	Items          []ReconciledItem `json:"items"`
	Overpayment    decimal.Decimal  `json:"overpayment"`
}

type ReconcileTotals struct {
	TotalOverpayment decimal.Decimal `json:"totalOverpayment"`
	OverpaymentCount int64           `json:"overpaymentCount"`
}

// ReconcileRows folds the raw row sequence into one record per transaction.
//
// Grouping preserves first-seen order across transactions and within each
// transaction's items. The overpayment of a transaction is
// max(0, amount_paid - items_total - change_amount) and is allocated in full
// to the first item in fetch order; every other item is paid exactly its
// amount. Splitting it pro-rata would change every per-item and
// per-classification rollup downstream, so the single-item allocation is
// deliberate and must stay.
func ReconcileRows(rows []RawLedgerRow) ([]*ReconciledTransaction, ReconcileTotals) {
	byKey := make(map[int64]*ReconciledTransaction, len(rows))
	ordered := make([]*ReconciledTransaction, 0, len(rows))

	for _, row := range rows {
		txn, seen := byKey[row.TransactionKey]
		if !seen {
			txn = &ReconciledTransaction{
				TransactionKey: row.TransactionKey,
				OrNumber:       row.OrNumber,
				Timestamp:      row.TransactionTime,
				AmountPaid:     row.AmountPaid,
				ChangeAmount:   row.ChangeAmount,
				PaymentTypeId:  row.PaymentTypeId,
				PaymentType:    row.PaymentTypeLabel,
			}
			byKey[row.TransactionKey] = txn
			ordered = append(ordered, txn)
		}
		if row.LineItemId == nil {
			// Header-only row: the transaction has no line items. Keep the
			// transaction, append nothing.
			continue
		}
		txn.Items = append(txn.Items, ReconciledItem{
			LineItemId:          *row.LineItemId,
			ClassificationId:    row.ClassificationId,
			ClassificationLabel: row.ClassificationLabel,
			Particulars:         row.Particulars,
			Amount:              row.Amount,
			PaidAmount:          row.Amount,
		})
	}

	var totals ReconcileTotals
	for _, txn := range ordered {
		itemsTotal := decimal.Zero
		for _, item := range txn.Items {
			itemsTotal = itemsTotal.Add(item.Amount)
		}

		overpayment := txn.AmountPaid.Sub(itemsTotal).Sub(txn.ChangeAmount)
		if overpayment.IsNegative() {
			overpayment = decimal.Zero
		}
		txn.Overpayment = overpayment

		if overpayment.IsPositive() {
			totals.TotalOverpayment = totals.TotalOverpayment.Add(overpayment)
			totals.OverpaymentCount++
			if len(txn.Items) > 0 {
				txn.Items[0].PaidAmount = txn.Items[0].Amount.Add(overpayment)
			}
		}
	}

	return ordered, totals
}
