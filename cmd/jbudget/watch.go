package main

import (
	"errors"
	"fmt"
	"time"

	"jbudget/internal/cli"
	"jbudget/internal/services"
)

type watchCmd struct{}

func (c *watchCmd) Run(rc *runContext) error {
	cfg, err := cli.LoadAndValidateConfig(rc.logger)
	if err != nil {
		return err
	}
	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is not set")
	}
	client, err := cli.NewAMQPClient(rc.ctx, rc.logger, cfg)
	if err != nil {
		return err
	}

	ctx, done := cli.GracefulShutdown(rc.logger, 5*time.Second, nil)
	err = client.Consume(ctx, func(e services.Event) error {
		_, err := fmt.Fprintf(rc.out, "%s\t%s\t%s\t%s\n", e.At.Format(time.RFC3339), e.Entity, e.Kind, e.ID)
		return err
	})
	client.Close()
	if ctx.Err() != nil {
		<-done
		return nil
	}
	return err
}
