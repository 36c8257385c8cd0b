// Package config loads crackhash settings from a YAML file and CRACKHASH_*
// environment variables, in that order, on top of Default().
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"crackhash/internal/search"
)

// DefaultFile is read when no path is given and it exists in the working directory.
const DefaultFile = "crackhash.yaml"

type Config struct {
	Workers          int           `yaml:"workers" validate:"gte=0,lte=4096"`
	ChunkMultiplier  int           `yaml:"chunk_multiplier" validate:"gte=1,lte=1024"`
	MinChunk         uint64        `yaml:"min_chunk" validate:"gte=1"`
	MaxSearchSpace   uint64        `yaml:"max_search_space"`
	LogLevel         string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat        string        `yaml:"log_format" validate:"oneof=text json"`
	Potfile          string        `yaml:"potfile"`
	ProgressInterval time.Duration `yaml:"progress_interval" validate:"gte=0"`
	Server           Server        `yaml:"server"`
}

type Server struct {
	Addr        string        `yaml:"addr" validate:"required,hostname_port"`
	JobTimeout  time.Duration `yaml:"job_timeout" validate:"gte=0"`
	WordlistDir string        `yaml:"wordlist_dir"`
}

func Default() Config {
	sc := search.DefaultConfig()
	return Config{
		Workers:          sc.Workers,
		ChunkMultiplier:  sc.ChunkMultiplier,
		MinChunk:         sc.MinChunk,
		MaxSearchSpace:   sc.MaxSearchSpace,
		LogLevel:         "info",
		LogFormat:        "text",
		ProgressInterval: time.Second,
		Server: Server{
			Addr:        "localhost:8080",
			JobTimeout:  5 * time.Minute,
			WordlistDir: "wordlists",
		},
	}
}

var validate = validator.New()

// Load reads path over the defaults, applies the environment and validates the
// result. An empty path falls back to DefaultFile when that file exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Search returns the coordinator settings.
func (c Config) Search() search.Config {
	return search.Config{
		Workers:         c.Workers,
		ChunkMultiplier: c.ChunkMultiplier,
		MinChunk:        c.MinChunk,
		MaxSearchSpace:  c.MaxSearchSpace,
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"CRACKHASH_WORKERS":          &cfg.Workers,
		"CRACKHASH_CHUNK_MULTIPLIER": &cfg.ChunkMultiplier,
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	uints := map[string]*uint64{
		"CRACKHASH_MIN_CHUNK":        &cfg.MinChunk,
		"CRACKHASH_MAX_SEARCH_SPACE": &cfg.MaxSearchSpace,
	}
	for name, dst := range uints {
		if v, ok := lookup(name); ok {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"CRACKHASH_PROGRESS_INTERVAL": &cfg.ProgressInterval,
		"CRACKHASH_JOB_TIMEOUT":       &cfg.Server.JobTimeout,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}

	strs := map[string]*string{
		"CRACKHASH_LOG_LEVEL":    &cfg.LogLevel,
		"CRACKHASH_LOG_FORMAT":   &cfg.LogFormat,
		"CRACKHASH_POTFILE":      &cfg.Potfile,
		"CRACKHASH_ADDR":         &cfg.Server.Addr,
		"CRACKHASH_WORDLIST_DIR": &cfg.Server.WordlistDir,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	return nil
}
