package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"jbudget/internal/core"
	"jbudget/internal/services"
)

type txCmd struct {
	Add    txAddCmd    `cmd:"" help:"Record a transaction."`
	Update txUpdateCmd `cmd:"" help:"Change fields of a transaction."`
	List   txListCmd   `cmd:"" help:"List transactions in insertion order."`
	Rm     txRmCmd     `cmd:"" help:"Remove a transaction."`
}

type txAddCmd struct {
	ID         string   `help:"Transaction id; a UUID is generated when empty."`
	Amount     string   `required:"" help:"Non-negative amount, e.g. 12.50."`
	Date       string   `help:"Date as YYYY-MM-DD; today when empty."`
	Type       string   `required:"" help:"INCOME or EXPENSE."`
	Desc       string   `help:"Free-text description."`
	Tag        []string `help:"Tag id, repeatable." placeholder:"ID"`
	Recurrence string   `help:"DAILY, WEEKLY, MONTHLY or YEARLY; a descriptive label only."`
}

func (c *txAddCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	date := c.Date
	if date == "" {
		date = time.Now().Format(core.DateLayout)
	}
	tx, err := buildTransaction(id, c.Amount, date, c.Type, c.Desc, c.Tag, c.Recurrence)
	if err != nil {
		return err
	}
	if err := checkTags(s.Ledger.Tags(), tx.TagIDs); err != nil {
		return err
	}
	ok, err := s.Ledger.Add(rc.ctx, tx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transaction %s already exists", id)
	}
	fmt.Fprintln(rc.out, id)
	return nil
}

type txUpdateCmd struct {
	ID         string   `arg:"" help:"Transaction id."`
	Amount     *string  `help:"New amount."`
	Date       *string  `help:"New date as YYYY-MM-DD."`
	Type       *string  `help:"New type."`
	Desc       *string  `help:"New description."`
	Tag        []string `help:"Replace the tag ids, repeatable." placeholder:"ID"`
	NoTags     bool     `help:"Remove every tag."`
	Recurrence *string  `help:"New recurrence label; empty clears it."`
}

func (c *txUpdateCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	cur, ok := s.Ledger.GetByID(c.ID)
	if !ok {
		return fmt.Errorf("transaction %s not found", c.ID)
	}
	amount, date := cur.Amount.String(), cur.Date.String()
	typ, desc, rec := string(cur.Type), cur.Description, string(cur.Recurrence)
	tags := cur.TagIDs
	override(&amount, c.Amount)
	override(&date, c.Date)
	override(&typ, c.Type)
	override(&desc, c.Desc)
	override(&rec, c.Recurrence)
	switch {
	case c.NoTags:
		tags = nil
	case len(c.Tag) > 0:
		tags = c.Tag
	}

	tx, err := buildTransaction(c.ID, amount, date, typ, desc, tags, rec)
	if err != nil {
		return err
	}
	if err := checkTags(s.Ledger.Tags(), tx.TagIDs); err != nil {
		return err
	}
	ok, err = s.Ledger.Update(rc.ctx, c.ID, tx)
	return notFound(ok, err, "transaction", c.ID)
}

func override(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type txListCmd struct {
	From string `help:"First date, inclusive." placeholder:"YYYY-MM-DD"`
	To   string `help:"Last date, inclusive." placeholder:"YYYY-MM-DD"`
	Root string `help:"Only transactions tagged with this root tag or one of its children." placeholder:"ID"`
}

func (c *txListCmd) Run(rc *runContext) error {
	r, err := parseRange(c.From, c.To)
	if err != nil {
		return err
	}
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	txs := s.Ledger.Budget().FilterByPeriod(s.Ledger.ListAll(), r)
	if c.Root != "" {
		txs = s.Ledger.Budget().FilterByRootTag(txs, s.Ledger.Tags(), c.Root)
	}

	w := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tTAGS\tRECURRENCE\tDESCRIPTION")
	for _, tx := range txs {
		tags, unresolved := s.Ledger.ResolveTags(tx)
		names := make([]string, 0, len(tx.TagIDs))
		for _, t := range tags {
			names = append(names, t.Name)
		}
		for _, id := range unresolved {
			names = append(names, core.UnresolvedTagName+"("+id+")")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Type, tx.Amount, strings.Join(names, ","), tx.Recurrence, tx.Description)
	}
	return w.Flush()
}

type txRmCmd struct {
	ID string `arg:"" help:"Transaction id."`
}

func (c *txRmCmd) Run(rc *runContext) error {
	s, err := rc.session()
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.Ledger.Remove(rc.ctx, c.ID)
	return notFound(ok, err, "transaction", c.ID)
}

func buildTransaction(id, amount, date, typ, desc string, tagIDs []string, rec string) (core.Transaction, error) {
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}
	t, err := core.ParseType(typ)
	if err != nil {
		return core.Transaction{}, err
	}
	r, err := core.ParseRecurrence(rec)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewTransaction(id, m, d, strings.TrimSpace(desc), t, tagIDs, r)
}

// checkTags refuses to attach ids that do not exist yet; dangling ids are
// only tolerated when a tag is removed later.
func checkTags(tags services.TagResolver, ids []string) error {
	for _, id := range ids {
		if _, ok := tags.GetByID(id); !ok {
			return fmt.Errorf("tag %s not found", id)
		}
	}
	return nil
}
