package services

import (
	"sort"

	"jbudget/internal/core"
)

// StatisticsAggregator computes totals and distributions over a set of
// transactions. It holds no state.
//
// Per-tag figures count a transaction once for every tag it carries, so
// the per-tag totals can add up to more than the overall total.
type StatisticsAggregator struct{}

// IncomeExpenseTotals sums amounts per type. Both keys are always present.
func (StatisticsAggregator) IncomeExpenseTotals(txs []core.Transaction) map[core.Type]float64 {
	totals := map[core.Type]float64{core.Income: 0, core.Expense: 0}
	for _, t := range txs {
		totals[t.Type] += t.Amount.Float64()
	}
	return totals
}

// TotalsByTagName sums amounts per tag name. Ids that do not resolve are
// grouped under core.UnresolvedTagName.
func (StatisticsAggregator) TotalsByTagName(txs []core.Transaction, tags TagResolver) map[string]float64 {
	totals := map[string]float64{}
	for _, t := range txs {
		for _, id := range t.TagIDs {
			totals[tagName(tags, id)] += t.Amount.Float64()
		}
	}
	return totals
}

// CountByTagName counts transactions per tag name, with the same grouping
// as TotalsByTagName.
func (StatisticsAggregator) CountByTagName(txs []core.Transaction, tags TagResolver) map[string]int {
	counts := map[string]int{}
	for _, t := range txs {
		for _, id := range t.TagIDs {
			counts[tagName(tags, id)]++
		}
	}
	return counts
}

// AmountStatistics returns count, average, min and max of the raw amounts.
// An empty set yields the zero AmountStats.
func (StatisticsAggregator) AmountStatistics(txs []core.Transaction) core.AmountStats {
	if len(txs) == 0 {
		return core.AmountStats{}
	}
	first := txs[0].Amount.Float64()
	stats := core.AmountStats{Count: len(txs), Min: first, Max: first}
	var total float64
	for _, t := range txs {
		v := t.Amount.Float64()
		total += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Average = total / float64(len(txs))
	return stats
}

// SignedTotalsByRootTag groups each transaction under the root of its first
// tag and sums signed amounts. A transaction whose first tag is missing or
// unresolved goes to core.UnresolvedTagName; a child whose parent no longer
// resolves is grouped under its own name.
func (StatisticsAggregator) SignedTotalsByRootTag(txs []core.Transaction, tags TagResolver) map[string]float64 {
	totals := map[string]float64{}
	for _, t := range txs {
		totals[rootName(tags, t)] += t.Signed().Float64()
	}
	return totals
}

// Sorted flattens a per-tag map into a slice ordered by descending amount,
// then by name.
func (StatisticsAggregator) Sorted(totals map[string]float64) []core.TagAmount {
	out := make([]core.TagAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.TagAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func tagName(tags TagResolver, id string) string {
	if t, ok := tags.GetByID(id); ok {
		return t.Name
	}
	return core.UnresolvedTagName
}

func rootName(tags TagResolver, t core.Transaction) string {
	if len(t.TagIDs) == 0 {
		return core.UnresolvedTagName
	}
	tag, ok := tags.GetByID(t.TagIDs[0])
	if !ok {
		return core.UnresolvedTagName
	}
	if tag.IsRoot() {
		return tag.Name
	}
	if parent, ok := tags.GetByID(tag.ParentID); ok {
		return parent.Name
	}
	return tag.Name
}
