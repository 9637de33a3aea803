package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// lambdaTmpDir is the only writable directory inside a Lambda sandbox
const lambdaTmpDir = "/tmp"

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	Stage        string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for serverless deployment
func AdaptConfigForServerless(config *Config) *Config {
	return adaptConfig(config, GetServerlessConfig())
}

func adaptConfig(config *Config, sc *ServerlessConfig) *Config {
	if !sc.IsLambda {
		return config
	}

	// CloudWatch ingests one JSON object per line
	config.Log.Format = "json"

	switch config.Database.Driver {
	case repositories.DriverSQLite:
		// Only /tmp is writable; the file lives as long as the warm container
		if !filepath.IsAbs(config.Database.Path) || !isUnder(config.Database.Path, lambdaTmpDir) {
			config.Database.Path = filepath.Join(lambdaTmpDir, filepath.Base(config.Database.Path))
		}
	case repositories.DriverPostgres:
		// One invocation at a time per container
		if config.Database.MaxOpenConns > 2 {
			config.Database.MaxOpenConns = 2
		}
		if config.Database.MaxIdleConns > config.Database.MaxOpenConns {
			config.Database.MaxIdleConns = config.Database.MaxOpenConns
		}
		if config.Database.SSLMode == "disable" {
			config.Database.SSLMode = "require"
		}
	}

	return config
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, "../")
}

// GetOptimizedConfig returns configuration optimized for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	// Apply serverless adaptations if needed
	config = AdaptConfigForServerless(config)

	return config, nil
}
