package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/poolgovd/internal/journal"
	"github.com/LeJamon/poolgovd/internal/rpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve governance queries and the journal stream",
	Long: `Start the read-only JSON-RPC server and the websocket journal stream.
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withNode(ctx, func(n *node) error {
			if !n.cfg.RPC.Enabled {
				return fmt.Errorf("rpc is disabled in the configuration")
			}
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				n.cfg.RPC.Listen = listen
			}
			return serve(ctx, n)
		})
	},
}

func serve(ctx context.Context, n *node) error {
	n.journal.SetHooks(&journal.Hooks{
		OnAppend: func(e journal.Event) {
			n.log.Debug("journal event", zap.Uint64("seq", e.Seq), zap.String("op", e.Op), zap.Int("code", e.Code))
		},
	})

	server := rpc.NewServer(n.proc, n.journal, n.cfg.RPC, n.log)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.ListenAndServe(gCtx) })
	g.Go(func() error {
		// refuse to serve a journal whose chain is already broken
		if err := n.journal.Verify(gCtx); err != nil {
			return fmt.Errorf("journal verification failed: %w", err)
		}
		if head := n.journal.Head(); head != nil {
			n.log.Info("journal verified", zap.Uint64("seq", head.Seq), zap.String("head", head.Hash.String()))
		}
		return nil
	})

	err := g.Wait()
	n.log.Info("server stopped")
	return err
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides rpc.listen)")
	rootCmd.AddCommand(serveCmd)
}
