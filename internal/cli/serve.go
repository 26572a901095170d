package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/envguard/internal/server"
)

var (
	servePort     int
	serveNoReload bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 50051, "gRPC listen port")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "Do not watch the config file for changes")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC decision service",
	Long: "Runs envguard as a shared decision service over gRPC. Hooks started with\n" +
		"'envguard hook --remote host:port' ask it for decisions, so every agent\n" +
		"on a machine uses one rule set and one audit log.\n" +
		"The config file is watched and reloaded on change.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, logLevel, false)
	if err != nil {
		return err
	}
	defer closeLog()

	srv, err := server.New(server.Config{
		Port:       servePort,
		ConfigPath: configPath,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !serveNoReload && srv.Source() != "" {
		reloader, err := server.NewReloader(srv, []string{srv.Source()}, server.DefaultDebounce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
		} else {
			go func() {
				if err := reloader.Run(ctx); err != nil {
					logger.Error("reloader stopped", "error", err)
				}
			}()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down decision service...")
		cancel()
		srv.GracefulStop()
	}()

	fmt.Fprintf(os.Stderr, "envguard decision service listening on :%d\n", servePort)
	if srv.Source() != "" {
		fmt.Fprintf(os.Stderr, "Config: %s\n", srv.Source())
	} else {
		fmt.Fprintln(os.Stderr, "Config: built-in defaults")
	}
	fmt.Fprintf(os.Stderr, "Fail mode: %s\n\n", srv.Interceptor().FailMode())

	return srv.Serve()
}
