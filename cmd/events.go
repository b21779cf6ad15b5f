/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/memberhub/apiserver/config"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log every event published on the events channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backend, err := mq.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		if backend == nil {
			return errors.New("MQ_BACKEND is none; nothing to tail")
		}
		defer backend.Close()

		log.Info(ctx, "tailing events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.EventsChannel)
		if err := events.Tail(ctx, backend, cfg.MQ.EventsChannel, log); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
