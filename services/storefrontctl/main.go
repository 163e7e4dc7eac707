// Command storefrontctl é o cliente de linha de comando da loja PepMenu.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	apiURL    string
	sessionID string
	verbose   bool
	timeout   time.Duration

	logger *zap.Logger
	client *Client
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefrontctl",
	Short: "Cliente de linha de comando da loja PepMenu",
	Long: `storefrontctl conversa com o serviço storefront: consulta o cardápio,
monta o carrinho, preenche os dados de entrega e finaliza pedidos.

Comece com 'storefrontctl session new' e exporte o identificador em PEPMENU_SESSION.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		client = NewClient(apiURL, sessionID, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("PEPMENU_API", "http://localhost:8080"), "Storefront API base URL")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", os.Getenv("PEPMENU_SESSION"), "Session id (or set PEPMENU_SESSION)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	registerCommands(rootCmd)
}

// commandContext aplica o --timeout ao contexto do comando
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
