package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Environment variables that override configuration values.
const (
	EnvAWSProfile  = "AWS_PROFILE"
	EnvGCPAPIKey   = "GCP_API_KEY"
	EnvAzureToken  = "AZURE_ACCESS_TOKEN"
	EnvRedisURL    = "REDIS_URL"
	EnvTimeoutSecs = "CLOUD_COMPARE_TIMEOUT"
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := filepath.Ext(filePath)
	fileExtension = strings.ToLower(fileExtension)

	// Verifica se o arquivo existe
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	if config.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("timeout_seconds must not be negative, got %d", config.TimeoutSeconds)
	}

	return &config, nil
}

// LoadEnvironment carrega os arquivos .env informados (ou ".env" do diretório
// atual) e aplica as variáveis de ambiente sobre config. Arquivos ausentes são
// ignorados; variáveis já definidas no ambiente têm precedência sobre o arquivo.
func (r *ConfigRepositoryImpl) LoadEnvironment(config *types.Config, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading env file %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvAWSProfile); v != "" {
		config.AWSProfile = v
	}
	if v := os.Getenv(EnvGCPAPIKey); v != "" {
		config.GCPAPIKey = v
	}
	if v := os.Getenv(EnvAzureToken); v != "" {
		config.AzureToken = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		config.RedisURL = v
	}
	if v := os.Getenv(EnvTimeoutSecs); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid %s value %q: expected a positive number of seconds", EnvTimeoutSecs, v)
		}
		config.TimeoutSeconds = secs
	}

	return nil
}
