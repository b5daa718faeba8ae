package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultVectorsDir     = "vectors"
	DefaultCollectionName = "sign_vectors"
	DefaultBatchSize      = 100
	DefaultStoreURL       = "http://localhost:6333"

	cloudHostMarker = "cloud.qdrant.io"
)

// Config is resolved once at startup and passed to the loader.
type Config struct {
	VectorsDir     string
	CollectionName string
	BatchSize      int
	StoreURL       string
	APIKey         string
}

// Load resolves the configuration from defaults, ~/.signvec/config.json, the
// environment (including a .env file) and the positional arguments
// [vectors_dir] [collection], in increasing order of precedence.
func Load(args []string) (Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("vectors_dir", DefaultVectorsDir)
	v.SetDefault("collection", DefaultCollectionName)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("url", DefaultStoreURL)
	v.SetDefault("api_key", "")

	if err := readUserConfig(v); err != nil {
		return Config{}, err
	}

	_ = v.BindEnv("url", "q_url", "QDRANT_URL")
	_ = v.BindEnv("api_key", "q_api", "QDRANT_API_KEY")
	_ = v.BindEnv("batch_size", "SIGNVEC_BATCH_SIZE")

	cfg := Config{
		VectorsDir:     v.GetString("vectors_dir"),
		CollectionName: v.GetString("collection"),
		BatchSize:      v.GetInt("batch_size"),
		StoreURL:       strings.TrimSpace(v.GetString("url")),
		APIKey:         strings.TrimSpace(v.GetString("api_key")),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(Get("QDRANT_API_TOKEN", "QDRANT_AUTH_TOKEN"))
	}

	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		cfg.VectorsDir = args[0]
	}
	if len(args) > 1 && strings.TrimSpace(args[1]) != "" {
		cfg.CollectionName = args[1]
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.StoreURL == "" {
		cfg.StoreURL = DefaultStoreURL
	}
	cfg.StoreURL = NormalizeURL(cfg.StoreURL)

	return cfg, nil
}

// NormalizeURL prefixes managed cloud hosts given without a scheme with
// https://. Everything else is returned unchanged; malformed URLs surface
// later as connection errors.
func NormalizeURL(raw string) string {
	if strings.Contains(raw, cloudHostMarker) && !strings.HasPrefix(raw, "http") {
		return "https://" + raw
	}
	return raw
}
