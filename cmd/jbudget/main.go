// Command jbudget records income and expenses, organizes them with a
// two-level tag hierarchy and reports balances and statistics.
package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"jbudget/internal/cli"
	"jbudget/internal/log"
)

// runContext is bound to every command's Run method.
type runContext struct {
	ctx    context.Context
	logger *log.Logger
	out    io.Writer
}

func (rc *runContext) session() (*cli.Session, error) {
	return cli.OpenSession(rc.ctx, rc.logger)
}

type commands struct {
	Tag     tagCmd     `cmd:"" help:"Manage tags."`
	Tx      txCmd      `cmd:"" help:"Manage transactions."`
	Balance balanceCmd `cmd:"" help:"Print the balance, optionally by period and tag."`
	Stats   statsCmd   `cmd:"" help:"Print income/expense totals and per-tag statistics."`
	Migrate migrateCmd `cmd:"" help:"Copy every tag and transaction to another backend."`
	Watch   watchCmd   `cmd:"" help:"Print change events published on the broker."`
}

func main() {
	cli.LoadEnvFile()
	// Every log line of one invocation carries the same run id.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).With(log.FieldRunID, uuid.New().String())

	var app commands
	ctx := kong.Parse(&app,
		kong.Name("jbudget"),
		kong.Description("Personal budget ledger."),
		kong.UsageOnError(),
	)

	start := time.Now()
	rc := &runContext{ctx: log.NewContext(context.Background(), logger), logger: logger, out: os.Stdout}
	err := ctx.Run(rc)
	logger.Debug("Command finished",
		"command", ctx.Command(),
		log.FieldDuration, time.Since(start).Milliseconds())
	ctx.FatalIfErrorf(err)
}
