// Package pipeline runs a scoring pass end to end: load, normalize,
// aggregate, label, train, score and persist. Nothing is written until
// every stage before persistence has succeeded.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estensen/wallet-credit-score/internal/aggregator"
	"github.com/estensen/wallet-credit-score/internal/config"
	"github.com/estensen/wallet-credit-score/internal/forest"
	"github.com/estensen/wallet-credit-score/internal/label"
	"github.com/estensen/wallet-credit-score/internal/loader"
	"github.com/estensen/wallet-credit-score/internal/metrics"
	"github.com/estensen/wallet-credit-score/internal/models"
	"github.com/estensen/wallet-credit-score/internal/parser"
	"github.com/estensen/wallet-credit-score/internal/scorer"
	"github.com/estensen/wallet-credit-score/internal/storage"
	"github.com/estensen/wallet-credit-score/internal/trainer"
	"github.com/estensen/wallet-credit-score/internal/utils"
)

// Result summarizes a completed run.
type Result struct {
	Transactions   int
	InvalidAmounts int
	Features       []models.WalletFeatures
	Scores         []models.WalletScore
	TrainR2        float64
	TestR2         float64
}

type Pipeline struct {
	cfg        *config.Config
	loader     loader.Loader
	aggregator aggregator.Aggregator
	labeler    label.Labeler
	local      storage.Storage
	publisher  storage.Storage
	recorder   *metrics.Recorder
	out        io.Writer
}

// New builds a pipeline from cfg. Publishing is off until WithPublisher.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		loader:     loader.NewArchiveLoader(cfg.ArchivePath, cfg.ExtractDir, cfg.JSONFilename),
		aggregator: aggregator.NewAggregator(),
		labeler:    label.FromConfig(cfg.Label),
		local:      storage.NewLocalStorage(""),
		recorder:   metrics.NewRecorder(),
		out:        os.Stdout,
	}
}

// WithLoader replaces the archive loader built from the config.
func (p *Pipeline) WithLoader(l loader.Loader) *Pipeline {
	p.loader = l
	return p
}

func (p *Pipeline) WithLabeler(l label.Labeler) *Pipeline {
	p.labeler = l
	return p
}

// WithPublisher adds a second destination that receives every artifact
// under its base file name after the local writes.
func (p *Pipeline) WithPublisher(s storage.Storage) *Pipeline {
	p.publisher = s
	return p
}

func (p *Pipeline) WithOutput(w io.Writer) *Pipeline {
	p.out = w
	return p
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	rec := p.recorder

	done := rec.Stage("load")
	raws, err := p.loader.Load()
	done()
	if err != nil {
		return nil, fmt.Errorf("error loading transactions: %w", err)
	}

	done = rec.Stage("normalize")
	transactions, stats, err := parser.Normalize(raws)
	done()
	if err != nil {
		return nil, fmt.Errorf("error normalizing transactions: %w", err)
	}
	rec.Transactions.Add(float64(stats.Transactions))
	rec.InvalidAmounts.Add(float64(stats.InvalidAmounts))
	if stats.InvalidAmounts > 0 {
		log.Warn().Int("records", stats.InvalidAmounts).Msg("USD value defaulted to zero")
	}

	done = rec.Stage("aggregate")
	features := p.aggregator.Aggregate(transactions)
	label.Apply(p.labeler, features)
	done()
	rec.Wallets.Set(float64(len(features)))
	log.Info().Int("wallets", len(features)).Msg("Wallet features computed")

	done = rec.Stage("train")
	trained, err := trainer.NewTrainer(p.cfg.Model).Train(features)
	done()
	if err != nil {
		return nil, fmt.Errorf("error training model: %w", err)
	}
	rec.FitScore.WithLabelValues("train").Set(trained.TrainR2)
	rec.FitScore.WithLabelValues("test").Set(trained.TestR2)

	fmt.Fprintf(p.out, "Training R² Score: %s\n", utils.FormatR2(trained.TrainR2))
	fmt.Fprintf(p.out, "Test R² Score:     %s\n", utils.FormatR2(trained.TestR2))

	done = rec.Stage("score")
	scores := scorer.Score(trained.Model, features)
	done()

	done = rec.Stage("persist")
	err = p.persist(ctx, trained.Model, features, scores)
	done()
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(p.out)
	utils.DisplayScores(p.out, scores, p.cfg.SampleRows)

	// Artifacts are already written, so a metrics failure does not fail the run.
	if p.cfg.MetricsTextfile != "" {
		rec.LastSuccess.Set(float64(time.Now().Unix()))
		if err := rec.WriteTextfile(p.cfg.MetricsTextfile); err != nil {
			log.Warn().Err(err).Str("path", p.cfg.MetricsTextfile).Msg("Failed to write metrics textfile")
		}
	}

	return &Result{
		Transactions:   stats.Transactions,
		InvalidAmounts: stats.InvalidAmounts,
		Features:       features,
		Scores:         scores,
		TrainR2:        trained.TrainR2,
		TestR2:         trained.TestR2,
	}, nil
}

type artifact struct {
	path string
	data []byte
}

func (p *Pipeline) persist(ctx context.Context, model *forest.Forest, features []models.WalletFeatures, scores []models.WalletScore) error {
	var modelBuf bytes.Buffer
	if err := forest.Save(&modelBuf, model); err != nil {
		return fmt.Errorf("error serializing model: %w", err)
	}

	scoresCSV, err := storage.RenderScores(scores)
	if err != nil {
		return err
	}

	artifacts := []artifact{
		{path: p.cfg.CSVOutput, data: scoresCSV},
		{path: p.cfg.ModelOutput, data: modelBuf.Bytes()},
	}

	if p.cfg.FeaturesOutput != "" {
		featuresCSV, err := storage.RenderFeatures(features, scores)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, artifact{path: p.cfg.FeaturesOutput, data: featuresCSV})
	}

	for _, a := range artifacts {
		if err := p.local.UploadFile(ctx, a.path, bytes.NewReader(a.data)); err != nil {
			return fmt.Errorf("error writing %s: %w", a.path, err)
		}
		fmt.Fprintf(p.out, "Saved %s\n", a.path)
	}

	if p.publisher == nil {
		return nil
	}
	for _, a := range artifacts {
		name := filepath.Base(a.path)
		if err := p.publisher.UploadFile(ctx, name, bytes.NewReader(a.data)); err != nil {
			return fmt.Errorf("error publishing %s: %w", name, err)
		}
	}
	log.Info().Int("artifacts", len(artifacts)).Msg("Artifacts published")
	return nil
}
