package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/corpusidx/corpusidx"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Reader    ReaderConfig    `mapstructure:"reader"`
	Index     IndexConfig     `mapstructure:"index"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
}

// CorpusConfig locates the transcript files.
type CorpusConfig struct {
	Root       string `mapstructure:"root"`
	Pattern    string `mapstructure:"pattern"`
	IgnoreFile string `mapstructure:"ignoreFile"`
}

// ReaderConfig controls the parallel file-read step.
type ReaderConfig struct {
	Threads int `mapstructure:"threads"`
}

// IndexConfig controls ordering and bucketing.
type IndexConfig struct {
	BucketSize  int  `mapstructure:"bucketSize"`
	Ascending   bool `mapstructure:"ascending"`
	DropLongest int  `mapstructure:"dropLongest"`
}

// TokenizerConfig selects and loads the encoder.
type TokenizerConfig struct {
	Mode          string `mapstructure:"mode"`
	Vocab         string `mapstructure:"vocab"`
	MaxSeqLen     int    `mapstructure:"maxSeqLen"`
	SpecialTokens bool   `mapstructure:"specialTokens"`
}

// SnapshotConfig stores where built indices are written.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

var (
	ErrInvalidBucketSize = errors.New("index.bucketSize must be positive")
	ErrInvalidThreads    = errors.New("reader.threads must be positive")
	ErrInvalidDrop       = errors.New("index.dropLongest cannot be negative")
)

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
// It does not validate: callers merge their overrides first and then call
// Validate.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("corpus.root", ".")
	v.SetDefault("corpus.pattern", internal.DefaultSplitPattern)
	v.SetDefault("corpus.ignoreFile", internal.DefaultIgnoreFile)
	v.SetDefault("reader.threads", internal.DefaultReadFileThreads)
	v.SetDefault("index.bucketSize", internal.DefaultBucketSize)
	v.SetDefault("index.ascending", false)
	v.SetDefault("index.dropLongest", 0)
	v.SetDefault("tokenizer.mode", internal.DefaultTokenizerMode)
	v.SetDefault("tokenizer.vocab", "")
	v.SetDefault("tokenizer.maxSeqLen", 0)
	v.SetDefault("tokenizer.specialTokens", false)
	v.SetDefault("snapshot.path", "")

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // index.bucketSize becomes CORPUSIDX_INDEX_BUCKETSIZE

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults and environment are used.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	AppConfig = *cfg
	return cfg, nil
}

// Validate rejects configurations an index cannot be built from.
func (c *Config) Validate() error {
	if c.Index.BucketSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBucketSize, c.Index.BucketSize)
	}
	if c.Reader.Threads <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreads, c.Reader.Threads)
	}
	if c.Index.DropLongest < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDrop, c.Index.DropLongest)
	}
	return nil
}

// IgnorePath resolves the ignore file relative to the corpus root.
func (c *Config) IgnorePath() string {
	if c.Corpus.IgnoreFile == "" || filepath.IsAbs(c.Corpus.IgnoreFile) {
		return c.Corpus.IgnoreFile
	}
	return filepath.Join(c.Corpus.Root, c.Corpus.IgnoreFile)
}
