package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/campuscash/collections_backend/models"
	"github.com/campuscash/collections_backend/utils"
)

// AggregateBucket is one grouped total along a single dimension. Amounts are
// rounded to 2 places exactly once, when the bucket is emitted; the running
// sums behind it are never rounded.
type AggregateBucket struct {
	Key               string          `json:"key"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Count             int64           `json:"count"`
	OverpaymentAmount decimal.Decimal `json:"overpaymentAmount"`
}

type CollectionsSummary struct {
	TotalCollections      decimal.Decimal `json:"totalCollections"`
	TotalTransactions     int64           `json:"totalTransactions"`
	TotalItems            int64           `json:"totalItems"`
	TotalOverpayment      decimal.Decimal `json:"totalOverpayment"`
	OverpaymentCount      int64           `json:"overpaymentCount"`
	AveragePerTransaction decimal.Decimal `json:"averagePerTransaction"`
	AveragePerItem        decimal.Decimal `json:"averagePerItem"`
}

type CollectionsReportResponse struct {
	Summary          CollectionsSummary `json:"summary"`
	ByDay            []AggregateBucket  `json:"byDay"`
	ByMonth          []AggregateBucket  `json:"byMonth"`
	ByClassification []AggregateBucket  `json:"byClassification"`
	ByPaymentType    []AggregateBucket  `json:"byPaymentType"`
	ByItem           []AggregateBucket  `json:"byItem"`
}

// rollupCollector accumulates one dimension. countTransactions switches the
// bucket count between distinct transactions (day, month, classification,
// payment type) and item rows (item label).
type rollupCollector struct {
	totals            map[string]decimal.Decimal
	overpayments      map[string]decimal.Decimal
	itemCounts        map[string]int64
	transactionsSeen  map[string]map[int64]struct{}
	countTransactions bool
}

func newRollupCollector(countTransactions bool) *rollupCollector {
	return &rollupCollector{
		totals:            make(map[string]decimal.Decimal),
		overpayments:      make(map[string]decimal.Decimal),
		itemCounts:        make(map[string]int64),
		transactionsSeen:  make(map[string]map[int64]struct{}),
		countTransactions: countTransactions,
	}
}

func (c *rollupCollector) add(key string, transactionKey int64, amount decimal.Decimal) {
	c.totals[key] = c.totals[key].Add(amount)
	c.itemCounts[key]++
	seen, ok := c.transactionsSeen[key]
	if !ok {
		seen = make(map[int64]struct{})
		c.transactionsSeen[key] = seen
	}
	seen[transactionKey] = struct{}{}
}

func (c *rollupCollector) addOverpayment(key string, amount decimal.Decimal) {
	c.overpayments[key] = c.overpayments[key].Add(amount)
}

const (
	sortByKeyAsc = iota
	sortByTotalDesc
)

// buckets emits the dimension, rounding each total here and nowhere earlier.
// Ties sort by key so repeated runs on identical input are byte-identical.
func (c *rollupCollector) buckets(sortMode int) []AggregateBucket {
	result := make([]AggregateBucket, 0, len(c.totals))
	for key, total := range c.totals {
		count := c.itemCounts[key]
		if c.countTransactions {
			count = int64(len(c.transactionsSeen[key]))
		}
		result = append(result, AggregateBucket{
			Key:               key,
			TotalAmount:       utils.Round2(total),
			Count:             count,
			OverpaymentAmount: utils.Round2(c.overpayments[key]),
		})
	}
	switch sortMode {
	case sortByTotalDesc:
		sort.Slice(result, func(i, j int) bool {
			if !result[i].TotalAmount.Equal(result[j].TotalAmount) {
				return result[i].TotalAmount.GreaterThan(result[j].TotalAmount)
			}
			return result[i].Key < result[j].Key
		})
	default:
		sort.Slice(result, func(i, j int) bool {
			return result[i].Key < result[j].Key
		})
	}
	return result
}

// classificationKey falls back from the classification label to the item's
// own particulars, then to the shared Unspecified bucket.
func classificationKey(item *models.ReconciledItem) string {
	if strings.TrimSpace(item.ClassificationLabel) != "" {
		return utils.NormalizeLabel(item.ClassificationLabel)
	}
	return utils.NormalizeLabel(item.Particulars)
}

func paymentTypeKey(txn *models.ReconciledTransaction) string {
	return utils.NormalizeLabel(txn.PaymentType)
}

// BuildCollectionsResponse rolls the reconciled transactions up along every
// dimension in one pass. Pure and deterministic: identical input yields
// byte-identical output.
func BuildCollectionsResponse(txns []*models.ReconciledTransaction, totals models.ReconcileTotals) *CollectionsReportResponse {
	byDay := newRollupCollector(true)
	byMonth := newRollupCollector(true)
	byClassification := newRollupCollector(true)
	byPaymentType := newRollupCollector(true)
	byItem := newRollupCollector(false)

	totalCollections := decimal.Zero
	var totalItems int64

	for _, txn := range txns {
		dayKey := utils.DayKey(txn.Timestamp)
		monthKey := utils.MonthKey(txn.Timestamp)
		byDay.addOverpayment(dayKey, txn.Overpayment)

		for i := range txn.Items {
			item := &txn.Items[i]
			totalCollections = totalCollections.Add(item.PaidAmount)
			totalItems++

			byDay.add(dayKey, txn.TransactionKey, item.PaidAmount)
			byMonth.add(monthKey, txn.TransactionKey, item.PaidAmount)
			byClassification.add(classificationKey(item), txn.TransactionKey, item.PaidAmount)
			byPaymentType.add(paymentTypeKey(txn), txn.TransactionKey, item.PaidAmount)
			byItem.add(utils.NormalizeLabel(item.Particulars), txn.TransactionKey, item.PaidAmount)
		}
	}

	totalTransactions := int64(len(txns))

	return &CollectionsReportResponse{
		Summary: CollectionsSummary{
			TotalCollections:      utils.Round2(totalCollections),
			TotalTransactions:     totalTransactions,
			TotalItems:            totalItems,
			TotalOverpayment:      utils.Round2(totals.TotalOverpayment),
			OverpaymentCount:      totals.OverpaymentCount,
			AveragePerTransaction: utils.SafeDivide(totalCollections, totalTransactions),
			AveragePerItem:        utils.SafeDivide(totalCollections, totalItems),
		},
		ByDay:            byDay.buckets(sortByKeyAsc),
		ByMonth:          byMonth.buckets(sortByKeyAsc),
		ByClassification: byClassification.buckets(sortByTotalDesc),
		ByPaymentType:    byPaymentType.buckets(sortByTotalDesc),
		ByItem:           byItem.buckets(sortByTotalDesc),
	}
}
