package vendors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadDir reads every *.yaml / *.yml document in dir into a validated
// VendorConfig. API keys may reference environment variables as
// ${VAR}; the reference is expanded at load time.
func LoadDir(dir string, logger *zap.Logger) ([]*VendorConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor config dir %s: %w", dir, err)
	}

	var configs []*VendorConfig
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		cfg, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded vendor configuration",
			zap.String("vendor", cfg.VendorName),
			zap.String("file", entry.Name()),
			zap.Int("endpoints", len(cfg.Endpoints)))
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no vendor configurations found in %s", dir)
	}
	return configs, nil
}

// LoadFile reads a single vendor configuration document.
func LoadFile(path string) (*VendorConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor config %s: %w", path, err)
	}
	var cfg VendorConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse vendor config %s: %w", path, err)
	}
	cfg.APIKey = os.ExpandEnv(cfg.APIKey)
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vendor config %s: %w", path, err)
	}
	return &cfg, nil
}

// normalize canonicalizes data types and HTTP methods so that config
// documents may spell them in any case.
func normalize(cfg *VendorConfig) {
	for name, ep := range cfg.Endpoints {
		if t, err := model.ParseDataType(string(ep.DataType)); err == nil {
			ep.DataType = t
		}
		ep.HTTPMethod = strings.ToUpper(strings.TrimSpace(ep.HTTPMethod))
		cfg.Endpoints[name] = ep
	}
}
