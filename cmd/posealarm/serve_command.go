package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the database-backed classifier over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ctx.serve(runCtx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (defaults to classifier.addr)")
	return cmd
}

func (c *commandContext) serve(ctx context.Context, listen string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Classifier.Addr
	}

	return c.withStore(func(st *store.Store) error {
		model, err := classifier.NewPersistent(ctx, classifier.NewKNN(cfg.Classifier.K), st)
		if err != nil {
			return fmt.Errorf("load classifier: %w", err)
		}

		lis, err := net.Listen("tcp", listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", listen, err)
		}

		srv := grpc.NewServer()
		classifier.RegisterServiceServer(srv, classifier.NewServer(model, logger))

		counts, _ := model.CountByLabel(ctx)
		logger.Info("classifier serving", "addr", lis.Addr().String(), "examples", counts)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			srv.GracefulStop()
			return nil
		})
		err = g.Wait()
		logger.Info("classifier stopped")
		return err
	})
}
