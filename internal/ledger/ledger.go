// Package ledger computes derived views over the transaction ledger:
// per-channel running balances and date-bucketed net-flow series. All
// functions are pure over the collections passed in; nothing here
// mutates or caches.
package ledger

import (
	"sort"

	"bizbook/internal/core"
)

// UnknownBank is the placeholder label for transactions whose bank was
// deleted after recording. Stale references degrade to this label
// instead of failing aggregation.
const UnknownBank = "Unknown Bank"

// TrendPoint is one date's aggregated net signed amount.
type TrendPoint struct {
	Date core.Date `json:"date"`
	Net  core.Money `json:"net"`
}

// ComputeChannelBalances returns the running balance per payment
// channel. Cash is the signed sum of all CASH transactions. BankTotal
// is the signed sum of all BANK transactions plus every bank's opening
// balance; the opening balance is folded in unconditionally from the
// live banks collection, so a deleted bank's contribution disappears
// on the next call.
func ComputeChannelBalances(transactions []core.Transaction, banks []core.Bank) core.ChannelBalances {
	var cash, bankTotal int64
	for _, t := range transactions {
		signed := t.Signed().Cents
		switch t.PaymentMode {
		case core.PayBank:
			bankTotal += signed
		default:
			cash += signed
		}
	}
	for _, b := range banks {
		bankTotal += b.Balance.Cents
	}
	return core.ChannelBalances{
		Cash:      core.Money{Cents: cash},
		BankTotal: core.Money{Cents: bankTotal},
	}
}

// ComputeTrend buckets the most recent windowSize transactions, in
// collection order, by date and sums signed amounts per date. A
// windowSize of zero or beyond the collection length covers the whole
// collection. The result is sorted ascending by calendar date; date
// keys are unique so ties cannot occur.
func ComputeTrend(transactions []core.Transaction, windowSize int) []TrendPoint {
	window := transactions
	if windowSize > 0 && len(transactions) > windowSize {
		window = transactions[len(transactions)-windowSize:]
	}
	return BucketByDate(window)
}

// BucketByDate aggregates signed amounts into one point per distinct
// date, sorted ascending. Shared with the report aggregator's profit
// trend, which applies the same rule over a range-filtered set.
func BucketByDate(transactions []core.Transaction) []TrendPoint {
	sums := make(map[string]int64)
	for _, t := range transactions {
		sums[t.Date.String()] += t.Signed().Cents
	}

	points := make([]TrendPoint, 0, len(sums))
	for key, net := range sums {
		d, err := core.ParseDate(key)
		if err != nil {
			// Keys come from Date.String, this cannot happen.
			continue
		}
		points = append(points, TrendPoint{Date: d, Net: core.Money{Cents: net}})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date.Time)
	})
	return points
}

// ResolveBankName maps a bank id to its display name, degrading to
// UnknownBank when the reference is stale.
func ResolveBankName(banks []core.Bank, bankID string) string {
	for _, b := range banks {
		if b.ID == bankID {
			return b.BankName
		}
	}
	return UnknownBank
}
