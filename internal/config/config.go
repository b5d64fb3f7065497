package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds every path and tunable of a scoring run.
type Config struct {
	ArchivePath     string `yaml:"archive_path"`
	ExtractDir      string `yaml:"extract_dir"`
	JSONFilename    string `yaml:"json_filename"`
	ModelOutput     string `yaml:"model_output"`
	CSVOutput       string `yaml:"csv_output"`
	FeaturesOutput  string `yaml:"features_output"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	SampleRows      int    `yaml:"sample_rows"`

	Model ModelConfig `yaml:"model"`
	Label LabelConfig `yaml:"label"`
	MinIO MinIOConfig `yaml:"minio"`
}

type ModelConfig struct {
	NEstimators     int     `yaml:"n_estimators"`
	RandomSeed      uint64  `yaml:"random_seed"`
	TestSize        float64 `yaml:"test_size"`
	MinSamplesSplit int     `yaml:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf"`
	MaxDepth        int     `yaml:"max_depth"` // 0 means unlimited
}

// LabelConfig carries the weights of the synthetic training label.
type LabelConfig struct {
	Base                 float64 `yaml:"base"`
	BorrowToDepositRatio float64 `yaml:"borrow_to_deposit_ratio"`
	NumLiquidations      float64 `yaml:"num_liquidations"`
	RepaymentRatio       float64 `yaml:"repayment_ratio"`
	NetFlowUSD           float64 `yaml:"net_flow_usd"`
	Min                  float64 `yaml:"min"`
	Max                  float64 `yaml:"max"`
}

// MinIOConfig enables artifact publishing when Endpoint and Bucket are set.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ArchivePath:  "user-wallet-transactions.json.zip",
		ExtractDir:   "unzipped",
		JSONFilename: "user-wallet-transactions.json",
		ModelOutput:  "credit_score_model.bin",
		CSVOutput:    "wallet_scores.csv",
		SampleRows:   10,
		Model: ModelConfig{
			NEstimators:     100,
			RandomSeed:      42,
			TestSize:        0.2,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
		},
		Label: LabelConfig{
			Base:                 1000,
			BorrowToDepositRatio: -300,
			NumLiquidations:      -200,
			RepaymentRatio:       200,
			NetFlowUSD:           0.01,
			Min:                  0,
			Max:                  1000,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.ArchivePath == "":
		return fmt.Errorf("%w: archive_path is required", ErrInvalidConfig)
	case c.ExtractDir == "":
		return fmt.Errorf("%w: extract_dir is required", ErrInvalidConfig)
	case c.JSONFilename == "":
		return fmt.Errorf("%w: json_filename is required", ErrInvalidConfig)
	case c.ModelOutput == "":
		return fmt.Errorf("%w: model_output is required", ErrInvalidConfig)
	case c.CSVOutput == "":
		return fmt.Errorf("%w: csv_output is required", ErrInvalidConfig)
	case c.SampleRows < 0:
		return fmt.Errorf("%w: sample_rows must not be negative", ErrInvalidConfig)
	case c.Model.NEstimators < 1:
		return fmt.Errorf("%w: n_estimators must be at least 1", ErrInvalidConfig)
	case c.Model.TestSize <= 0 || c.Model.TestSize >= 1:
		return fmt.Errorf("%w: test_size must be in (0, 1)", ErrInvalidConfig)
	case c.Model.MinSamplesSplit < 2:
		return fmt.Errorf("%w: min_samples_split must be at least 2", ErrInvalidConfig)
	case c.Model.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min_samples_leaf must be at least 1", ErrInvalidConfig)
	case c.Model.MaxDepth < 0:
		return fmt.Errorf("%w: max_depth must not be negative", ErrInvalidConfig)
	case c.Label.Min > c.Label.Max:
		return fmt.Errorf("%w: label min %.2f exceeds max %.2f", ErrInvalidConfig, c.Label.Min, c.Label.Max)
	}
	return nil
}
