package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor and idle-replica GC loops until interrupted",
		Long: `Starts the Monitor loop (reconcile, observe, score, scale) and the
idle-replica garbage collector as background loops, and blocks until
SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			f, _, closeFleet := bootstrap()
			defer closeFleet()

			log.Info("fleetscale: starting monitor and idle-gc loops")

			done := make(chan struct{}, 2)
			go func() { f.MonitorLoop(ctx); done <- struct{}{} }()
			go func() { f.IdleReplicaGCLoop(ctx); done <- struct{}{} }()

			<-ctx.Done()
			<-done
			<-done
			log.Info("fleetscale: shut down")
			return nil
		},
	}
}
