package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/driftos/driftos-backend/internal/modules/routing"
	"github.com/driftos/driftos-backend/internal/platform/envutil"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type Config struct {
	Mode          string
	Port          string
	Version       string
	EnableTracing bool
	Policy        routing.Policy
}

// fileConfig is the optional YAML overlay pointed to by DRIFTOS_CONFIG_FILE.
// Anything present in the file wins over environment values.
type fileConfig struct {
	Mode       string `yaml:"mode"`
	Port       string `yaml:"port"`
	Thresholds struct {
		Stay       *float64 `yaml:"stay"`
		NewCluster *float64 `yaml:"new_cluster"`
		Route      *float64 `yaml:"route"`
	} `yaml:"thresholds"`
	MaxBranches       *int `yaml:"max_branches"`
	PipelineTimeoutMs *int `yaml:"pipeline_timeout_ms"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Mode:          envutil.Str("LOG_MODE", "development"),
		Port:          envutil.Str("PORT", "8080"),
		Version:       envutil.Str("SERVICE_VERSION", "dev"),
		EnableTracing: envutil.Bool("OTEL_ENABLED", false),
		Policy:        routing.PolicyFromEnv(),
	}

	path := envutil.Str("DRIFTOS_CONFIG_FILE", "")
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Mode != "" {
		cfg.Mode = fc.Mode
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.Thresholds.Stay != nil {
		cfg.Policy.StayThreshold = *fc.Thresholds.Stay
	}
	if fc.Thresholds.NewCluster != nil {
		cfg.Policy.NewClusterThreshold = *fc.Thresholds.NewCluster
	}
	if fc.Thresholds.Route != nil {
		cfg.Policy.RouteThreshold = *fc.Thresholds.Route
	}
	if fc.MaxBranches != nil {
		cfg.Policy.MaxBranches = *fc.MaxBranches
	}
	if fc.PipelineTimeoutMs != nil {
		cfg.Policy.PipelineTimeout = time.Duration(*fc.PipelineTimeoutMs) * time.Millisecond
	}

	log.Info("config file applied", "path", path)
	return cfg, nil
}
