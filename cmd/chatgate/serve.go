package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chatforge/chatgate/internal/agent"
	"github.com/chatforge/chatgate/internal/config"
	"github.com/chatforge/chatgate/internal/convo"
	"github.com/chatforge/chatgate/internal/gateway"
	"github.com/chatforge/chatgate/internal/llm"
	"github.com/chatforge/chatgate/internal/ratelimit"
	"github.com/chatforge/chatgate/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			level := slog.LevelInfo
			if verbose || cfg.LogLevel == "debug" {
				level = slog.LevelDebug
			}
			logger := telemetry.NewLogger(os.Stdout, level)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var (
				agentStore agent.Store
				convoStore convo.Store
			)
			if cfg.PostgresDSN != "" {
				pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
				if err != nil {
					return err
				}
				defer pool.Close()
				agentStore = agent.NewPostgresStore(pool)
				convoStore = convo.NewPostgresStore(pool)
			} else {
				logger.Warn("no postgres DSN configured, using in-memory stores")
				agentStore = agent.NewMemoryStore()
				convoStore = convo.NewMemoryStore()
			}

			counterStore := ratelimit.NewCounterStore(
				ratelimit.WithSweepInterval(cfg.SweepInterval()),
			)
			counterStore.Start()
			defer counterStore.Stop()

			limiter := ratelimit.NewLimiter(counterStore, []ratelimit.Policy{
				{Kind: ratelimit.PolicyGlobal, Window: cfg.GlobalLimit.Window(), Max: cfg.GlobalLimit.Max,
					Message: "Too many requests. Please try again later."},
				{Kind: ratelimit.PolicyWidget, Window: cfg.WidgetLimit.Window(), Max: cfg.WidgetLimit.Max,
					Message: "Too many messages to this assistant. Please slow down."},
				{Kind: ratelimit.PolicyDomain, Window: cfg.DomainLimit.Window(), Max: cfg.DomainLimit.Max,
					Message: "This site has exceeded its chat quota. Please try again later."},
			}, logger)

			var client llm.Client
			if cfg.AnthropicAPIKey != "" {
				client = llm.NewAnthropicClientWithKey(cfg.AnthropicAPIKey)
			} else {
				client = llm.NewAnthropicClient()
			}
			invoker := llm.NewInvoker(client, logger, llm.WithCallTimeout(cfg.ProviderTimeout()))

			convoGateway := convo.NewGateway(convoStore,
				convo.WithMessageCap(cfg.MessageCap),
				convo.WithMaxContentLength(cfg.MaxMessageLength),
			)

			server := gateway.NewServer(agentStore, convoGateway, limiter, invoker,
				gateway.WithLogger(logger),
				gateway.WithMetrics(telemetry.NewMetrics()),
				gateway.WithMaxMessageLength(cfg.MaxMessageLength),
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := server.ListenAndServe(cfg.Addr); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
