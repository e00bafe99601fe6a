package services

import "jbudget/internal/core"

// BudgetAggregator computes balances over a set of transactions. It holds
// no state.
//
// Balance sums amounts without looking at the transaction type; NetBalance
// is the signed variant (income positive, expense negative).
type BudgetAggregator struct{}

// Balance is the unsigned sum of every amount.
func (BudgetAggregator) Balance(txs []core.Transaction) core.Money {
	return sum(txs, func(core.Transaction) bool { return true })
}

// BalanceByTag sums the transactions that carry tag directly. Children of
// tag are not included.
func (BudgetAggregator) BalanceByTag(txs []core.Transaction, tag core.Tag) core.Money {
	return sum(txs, func(t core.Transaction) bool { return t.HasTag(tag.ID) })
}

// BalanceByPeriod sums the transactions dated within r.
func (BudgetAggregator) BalanceByPeriod(txs []core.Transaction, r core.DateRange) core.Money {
	return sum(txs, func(t core.Transaction) bool { return r.Contains(t.Date) })
}

// BalanceByPeriodAndTag combines BalanceByPeriod and BalanceByTag.
func (BudgetAggregator) BalanceByPeriodAndTag(txs []core.Transaction, r core.DateRange, tag core.Tag) core.Money {
	return sum(txs, func(t core.Transaction) bool { return r.Contains(t.Date) && t.HasTag(tag.ID) })
}

// NetBalance sums income as positive and expenses as negative.
func (BudgetAggregator) NetBalance(txs []core.Transaction) core.Money {
	total := core.Money{}
	for _, t := range txs {
		total = total.Add(t.Signed())
	}
	return total
}

// FilterByPeriod keeps the transactions dated within r.
func (BudgetAggregator) FilterByPeriod(txs []core.Transaction, r core.DateRange) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range txs {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// FilterByTag keeps the transactions that carry tagID directly.
func (BudgetAggregator) FilterByTag(txs []core.Transaction, tagID string) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range txs {
		if t.HasTag(tagID) {
			out = append(out, t)
		}
	}
	return out
}

// FilterByRootTag keeps the transactions tagged with rootID itself or with
// one of its direct children.
func (BudgetAggregator) FilterByRootTag(txs []core.Transaction, tags TagResolver, rootID string) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range txs {
		for _, id := range t.TagIDs {
			if id == rootID {
				out = append(out, t)
				break
			}
			if tag, ok := tags.GetByID(id); ok && tag.ParentID == rootID {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func sum(txs []core.Transaction, keep func(core.Transaction) bool) core.Money {
	total := core.Money{}
	for _, t := range txs {
		if keep(t) {
			total = total.Add(t.Amount)
		}
	}
	return total
}
