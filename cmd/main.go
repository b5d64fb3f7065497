package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/estensen/wallet-credit-score/internal/config"
	"github.com/estensen/wallet-credit-score/internal/pipeline"
	"github.com/estensen/wallet-credit-score/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Credit score pipeline failed")
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "wallet-credit-score",
		Short: "Score wallets from their lending protocol history",
		Long: `Extracts the wallet transaction archive, derives per-wallet features,
trains a random forest on a synthetic label and writes a 0-1000 credit score
for every wallet along with the trained model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults apply when omitted)")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg)
	if cfg.MinIO.Enabled() {
		minioStorage, err := storage.SetupMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		p.WithPublisher(minioStorage)
	}

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("transactions", result.Transactions).
		Int("wallets", len(result.Scores)).
		Msg("Credit score pipeline completed successfully")
	return nil
}
