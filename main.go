// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcpchat/internal"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chat",
		Short:         "Real-time TCP chat relay",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newConnectCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cfg := internal.ConfigFromEnv()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "addr", cfg.Host, "Listen address")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "Listen port")
	flags.StringVar(&cfg.WSAddr, "ws-addr", cfg.WSAddr, "Also accept WebSocket peers on host:port (disabled when empty)")
	flags.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Maximum time a single delivery may block")
	flags.IntVar(&cfg.MaxFrameSize, "max-frame", cfg.MaxFrameSize, "Maximum inbound frame size in bytes")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Activity log file (disabled when empty)")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	return cmd
}

func newConnectCmd() *cobra.Command {
	cfg := internal.DefaultClientConfig()

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Join a chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runClient(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.User, "user", cfg.User, "Display name")
	flags.StringVar(&cfg.Host, "addr", cfg.Host, "Server address")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "Server port")
	flags.BoolVar(&cfg.WebSocket, "ws", cfg.WebSocket, "Connect over WebSocket instead of TCP")
	flags.BoolVar(&cfg.UI, "ui", cfg.UI, "Use the terminal UI")
	return cmd
}

func runServer(ctx context.Context, cfg internal.Config) error {
	logger, closeLog, err := internal.NewLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("start app", zap.String("addr", cfg.Address()), zap.String("ws_addr", cfg.WSAddr))
	server := internal.NewServer(cfg, logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, internal.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("got stop signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("close app")
	return nil
}

func runClient(ctx context.Context, cfg internal.ClientConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := internal.Dial(ctx, cfg)
	if err != nil {
		return err
	}

	if !cfg.UI {
		defer client.Close()
		err := internal.RunLineMode(client, os.Stdin, os.Stdout)
		if err != nil && !internal.IsExpectedCloseError(err) {
			return err
		}
		return nil
	}

	ui, err := internal.NewChatUI(client)
	if err != nil {
		client.Close()
		return err
	}
	defer ui.Close()
	return ui.Run()
}
