package repository

import (
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration files.
type ConfigRepository interface {
	LoadConfigFile(filePath string) (*types.Config, error)
	LoadEnvironment(config *types.Config, envFiles ...string) error
}
