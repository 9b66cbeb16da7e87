package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
)

// errHighSeverity signals that the audit completed but found
// high-priority issues. It maps to exit code 1 without an error dump.
var errHighSeverity = errors.New("high-priority issues found")

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "auditor",
		Short: "Rule-based invoice audit engine",
		Long: `auditor checks extracted invoice data against vendor policies:
arithmetic consistency, spending limits, category restrictions, date
sanity, tax rates and duplicate submissions. Reports render as text,
HTML, JSON or Excel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults and env vars otherwise)")

	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(serveCmd())
}

func main() {
	// Env file is optional; real environment variables win.
	_ = gotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		if !errors.Is(err, errHighSeverity) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
