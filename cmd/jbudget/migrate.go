package main

import (
	"fmt"

	"jbudget/internal/backend"
	"jbudget/internal/cli"
	"jbudget/internal/log"
	"jbudget/internal/storage"
)

type migrateCmd struct {
	To string `required:"" enum:"xml,sqlite,memory" help:"Destination backend; paths come from the environment."`
}

func (c *migrateCmd) Run(rc *runContext) error {
	cfg, err := cli.LoadAndValidateConfig(rc.logger)
	if err != nil {
		return err
	}
	srcCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	dstCfg := srcCfg.WithType(backend.BackendType(c.To))
	if dstCfg.Type == srcCfg.Type {
		return fmt.Errorf("source and destination are both %s", c.To)
	}

	src, err := cli.OpenStore(rc.ctx, rc.logger, srcCfg)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := cli.OpenStore(rc.ctx, rc.logger, dstCfg)
	if err != nil {
		return err
	}
	defer dst.Close()

	res, err := storage.Copy(rc.ctx, dst.Store, src.Store)
	if err != nil {
		return fmt.Errorf("migrate %s to %s: %w", srcCfg.Type, dstCfg.Type, err)
	}
	rc.logger.InfoContext(rc.ctx, "Migration complete",
		log.FieldOperation, log.OpMigrate,
		"from", srcCfg.Type.String(),
		"to", dstCfg.Type.String(),
		"tags", res.Tags,
		"transactions", res.Transactions)
	fmt.Fprintf(rc.out, "copied %d tags and %d transactions to %s\n", res.Tags, res.Transactions, dstCfg.Type)
	return nil
}
