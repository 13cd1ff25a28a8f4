package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grinkit/internal/mcpserver"
	"grinkit/internal/observability"
	"grinkit/internal/partition"
	"grinkit/ui/tui"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph as MCP tools over stdio",
		Long:  `Starts an MCP server on stdin/stdout exposing the graph as tools: describe_schema, list_vertices, get_vertex, get_neighbors, resolve_vertex_ref and check_graph. With the etcd driver the server follows newly published epochs.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := observability.GetLogger()

			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			srv, err := mcpserver.NewServer(mcpserver.Config{
				ServerName:    a.cfg.MCP.Name,
				ServerVersion: a.cfg.MCP.Version,
			}, s.graph, log.Named("mcp"))
			if err != nil {
				_ = s.Close()
				return err
			}
			defer func() {
				_ = srv.Close()
				if s.pg != nil {
					_ = s.pg.Close()
				}
			}()

			if pg, ok := s.pg.(*partition.Graph); ok {
				w, err := partition.NewEpochWatcher(pg, a.cfg.Etcd.PollInterval, func(epoch uint64) {
					g, err := pg.LocalGraph(s.part)
					if err != nil {
						log.Warn("epoch swap failed", zap.Uint64("epoch", epoch), zap.Error(err))
						return
					}
					_ = srv.SetGraph(g).Close()
				})
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
				log.Info("following published epochs",
					zap.Uint64("epoch", pg.Epoch()),
					zap.Duration("interval", a.cfg.Etcd.PollInterval))
			}

			if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the graph in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return tui.Start(s.graph, a.cfg.Storage.Driver)
		},
	}
}
