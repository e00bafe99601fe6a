package main

import (
	"fmt"
	"text/tabwriter"

	"jbudget/internal/core"
)

type balanceCmd struct {
	From string `help:"First date, inclusive." placeholder:"YYYY-MM-DD"`
	To   string `help:"Last date, inclusive." placeholder:"YYYY-MM-DD"`
	Tag  string `help:"Only transactions carrying this tag id directly." placeholder:"ID"`
	Net  bool   `help:"Count expenses as negative."`
}

func (c *balanceCmd) Run(rc *runContext) error {
	r, err := parseRange(c.From, c.To)
	if err != nil {
		return err
	}
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	budget := s.Ledger.Budget()
	txs := s.Ledger.ListAll()

	var tag core.Tag
	if c.Tag != "" {
		var ok bool
		if tag, ok = s.Ledger.Tags().GetByID(c.Tag); !ok {
			return fmt.Errorf("tag %s not found", c.Tag)
		}
	}

	var total core.Money
	switch {
	case c.Net:
		txs = budget.FilterByPeriod(txs, r)
		if c.Tag != "" {
			txs = budget.FilterByTag(txs, tag.ID)
		}
		total = budget.NetBalance(txs)
	case c.Tag != "":
		total = budget.BalanceByPeriodAndTag(txs, r, tag)
	default:
		total = budget.BalanceByPeriod(txs, r)
	}
	fmt.Fprintln(rc.out, total)
	return nil
}

type statsCmd struct {
	From string `help:"First date, inclusive." placeholder:"YYYY-MM-DD"`
	To   string `help:"Last date, inclusive." placeholder:"YYYY-MM-DD"`
}

func (c *statsCmd) Run(rc *runContext) error {
	r, err := parseRange(c.From, c.To)
	if err != nil {
		return err
	}
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	stats := s.Ledger.Statistics()
	tags := s.Ledger.Tags()
	txs := s.Ledger.Budget().FilterByPeriod(s.Ledger.ListAll(), r)

	w := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)

	totals := stats.IncomeExpenseTotals(txs)
	fmt.Fprintf(w, "Income\t%.2f\n", totals[core.Income])
	fmt.Fprintf(w, "Expense\t%.2f\n", totals[core.Expense])
	fmt.Fprintf(w, "Net\t%s\n", s.Ledger.Budget().NetBalance(txs))

	a := stats.AmountStatistics(txs)
	fmt.Fprintf(w, "Count\t%d\n", a.Count)
	fmt.Fprintf(w, "Average\t%.2f\n", a.Average)
	fmt.Fprintf(w, "Min\t%.2f\n", a.Min)
	fmt.Fprintf(w, "Max\t%.2f\n", a.Max)

	counts := stats.CountByTagName(txs, tags)
	fmt.Fprintln(w, "\nTAG\tTOTAL\tCOUNT")
	for _, ta := range stats.Sorted(stats.TotalsByTagName(txs, tags)) {
		fmt.Fprintf(w, "%s\t%.2f\t%d\n", ta.Name, ta.Amount, counts[ta.Name])
	}

	fmt.Fprintln(w, "\nROOT\tNET")
	for _, ta := range stats.Sorted(stats.SignedTotalsByRootTag(txs, tags)) {
		fmt.Fprintf(w, "%s\t%.2f\n", ta.Name, ta.Amount)
	}
	return w.Flush()
}
