package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBPath        string            `json:"db_path"`
	MigrationsDir string            `json:"migrations_dir"`
	JWTSecret     string            `json:"jwt_secret"`
	Port          int               `json:"port"`
	JWTTTLHours   int               `json:"jwt_ttl_hours"`
	CORSAllowlist []string          `json:"cors_allowlist"`
	UploadLimitMB int64             `json:"upload_limit_mb"`
	LogConfig     logger.LogConfig  `json:"log_config"`
	VectorStore   VectorStoreConfig `json:"vector_store"`
	AI            AIConfig          `json:"ai"`
	Chunking      ChunkingConfig    `json:"chunking"`
	Retrieval     RetrievalConfig   `json:"retrieval"`
	EmbedCache    EmbedCacheConfig  `json:"embed_cache"`
	FileStore     FileStoreConfig   `json:"file_store"`
	RateLimit     RateLimitConfig   `json:"rate_limit"`
	Retention     RetentionConfig   `json:"retention"`
}

type RateLimitConfig struct {
	AuthWindowSec   int `json:"auth_window_sec"`
	IngestWindowSec int `json:"ingest_window_sec"`
}

type VectorStoreConfig struct {
	Dir string `json:"dir"`
}

type AIConfig struct {
	Provider   string `json:"provider"`
	APIKey     string `json:"api_key"`
	EmbedModel string `json:"embed_model"`
	EmbedDim   int    `json:"embed_dim"`
}

type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size"`
	Overlap      int `json:"overlap"`
	MaxChunks    int `json:"max_chunks"`
	MinTextChars int `json:"min_text_chars"`
}

type RetrievalConfig struct {
	DefaultTopK     int `json:"default_top_k"`
	MaxTopK         int `json:"max_top_k"`
	ContextChunks   int `json:"context_chunks"`
	ContextMaxChars int `json:"context_max_chars"`
}

type EmbedCacheConfig struct {
	Size       int `json:"size"`
	TTLMinutes int `json:"ttl_minutes"`
}

type FileStoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type RetentionConfig struct {
	ConversationDays int    `json:"conversation_days"`
	Cron             string `json:"cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.VectorStore.Dir == "" {
		return nil, fmt.Errorf("vector_store.dir is required")
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "gemini-embedding-001"
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = 384
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 500
	}
	if cfg.Chunking.ChunkSize < 0 {
		return nil, fmt.Errorf("chunking.chunk_size must be positive")
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 100
	}
	if cfg.Chunking.MaxChunks == 0 {
		cfg.Chunking.MaxChunks = 1000
	}
	if cfg.Chunking.MinTextChars == 0 {
		cfg.Chunking.MinTextChars = 20
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 4
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 20
	}
	if cfg.Retrieval.ContextChunks == 0 {
		cfg.Retrieval.ContextChunks = 6
	}
	if cfg.Retrieval.ContextMaxChars == 0 {
		cfg.Retrieval.ContextMaxChars = 500
	}
	if cfg.UploadLimitMB == 0 {
		cfg.UploadLimitMB = 20
	}
	if cfg.RateLimit.AuthWindowSec == 0 {
		cfg.RateLimit.AuthWindowSec = 1
	}
	if cfg.EmbedCache.Size == 0 {
		cfg.EmbedCache.Size = 10000
	}
	if cfg.EmbedCache.TTLMinutes == 0 {
		cfg.EmbedCache.TTLMinutes = 120
	}
	switch cfg.FileStore.Type {
	case "", "local":
		// local needs a dir only when enabled
		if cfg.FileStore.Type == "local" && cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		s3 := cfg.FileStore.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.SecretID == "" || s3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
		if cfg.FileStore.S3.Region == "" {
			cfg.FileStore.S3.Region = "us-east-1"
		}
	default:
		return nil, fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.Retention.ConversationDays > 0 && cfg.Retention.Cron == "" {
		cfg.Retention.Cron = "30 3 * * *"
	}
	return &cfg, nil
}
