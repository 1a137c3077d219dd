package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Config contains the complete configuration for a hivemind engine.
//
// Example:
//
//	config := &engine.Config{
//	    LLM: engine.LLMConfig{
//	        Provider: "gemini",
//	        APIKey:   "...",
//	    },
//	    Embedder: engine.EmbedderConfig{
//	        Provider: "gemini",
//	        APIKey:   "...",
//	    },
//	    DocStore: engine.DocStoreConfig{
//	        Provider: "sqlite",
//	        SQLitePath: "./hivemind.db",
//	    },
//	}
type Config struct {
	// LLM contains completion provider configuration.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration. Disabled by
	// an empty provider; retrieval then falls back to recency.
	Embedder EmbedderConfig `json:"embedder"`

	// DocStore contains document store configuration.
	DocStore DocStoreConfig `json:"doc_store"`

	// VectorIndex contains vector index configuration.
	VectorIndex VectorIndexConfig `json:"vector_index"`

	// Persona is the opening system prompt text. Empty uses the
	// built-in default persona.
	Persona string `json:"persona,omitempty"`

	// ExtractionEnabled turns LLM signal extraction on. When false,
	// exchanges are stored as raw traces.
	ExtractionEnabled bool `json:"extraction_enabled"`
}

// LLMConfig contains configuration for the completion provider.
//
// Supported providers: gemini, openai, anthropic, ollama.
type LLMConfig struct {
	// Provider is the completion provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the provider.
	APIKey string `json:"api_key"`

	// Model is the model name (empty uses the provider default).
	Model string `json:"model,omitempty"`

	// BaseURL overrides the API endpoint (optional).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: gemini, openai. An empty provider disables
// embedding.
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (empty uses the provider default).
	Model string `json:"model,omitempty"`

	// BaseURL overrides the API endpoint (optional, openai only).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding vector size (empty uses the provider
	// default).
	Dimensions int `json:"dimensions,omitempty"`
}

// DocStoreConfig contains configuration for the authoritative document
// store.
//
// Supported providers: sqlite, postgres, mysql.
type DocStoreConfig struct {
	// Provider is the document store provider name.
	Provider string `json:"provider"`

	// SQLitePath is the database file path (sqlite only).
	SQLitePath string `json:"sqlite_path,omitempty"`

	// Host, Port, User, Password, DBName and SSLMode configure the
	// server-backed providers.
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"db_name,omitempty"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// VectorIndexConfig contains configuration for the vector index.
type VectorIndexConfig struct {
	// Path enables on-disk persistence when set; empty keeps the index
	// in memory only.
	Path string `json:"path,omitempty"`

	// CollectionName is the index collection (default "memories").
	CollectionName string `json:"collection_name,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMENSIONS, EMBEDDING_ENABLED
//   - VECTOR_INDEX_PATH, VECTOR_INDEX_COLLECTION
//   - PERSONA
//   - EXTRACTION_ENABLED
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	docStore := DocStoreConfig{
		Provider: getEnvOrDefault("DATABASE_PROVIDER", "sqlite"),
	}

	switch docStore.Provider {
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		docStore.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		docStore.Port = port
		docStore.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		docStore.Password = os.Getenv("POSTGRES_PASSWORD")
		docStore.DBName = getEnvOrDefault("POSTGRES_DATABASE", "hivemind")
		docStore.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		docStore.Host = getEnvOrDefault("MYSQL_HOST", "localhost")
		docStore.Port = port
		docStore.User = getEnvOrDefault("MYSQL_USER", "root")
		docStore.Password = os.Getenv("MYSQL_PASSWORD")
		docStore.DBName = getEnvOrDefault("MYSQL_DATABASE", "hivemind")
	default:
		docStore.SQLitePath = getEnvOrDefault("SQLITE_PATH", "./hivemind.db")
	}

	llmProvider := getEnvOrDefault("LLM_PROVIDER", "gemini")
	var llmBaseURL string
	switch llmProvider {
	case "ollama":
		llmBaseURL = getEnvOrDefault("LLM_BASE_URL", "http://localhost:11434")
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
	}

	dimensions, _ := strconv.Atoi(os.Getenv("EMBEDDING_DIMENSIONS"))

	embedderProvider := os.Getenv("EMBEDDING_PROVIDER")
	if os.Getenv("EMBEDDING_ENABLED") == "false" {
		embedderProvider = ""
	}

	config := &Config{
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    os.Getenv("LLM_MODEL"),
			BaseURL:  llmBaseURL,
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      os.Getenv("EMBEDDING_MODEL"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: dimensions,
		},
		DocStore: docStore,
		VectorIndex: VectorIndexConfig{
			Path:           os.Getenv("VECTOR_INDEX_PATH"),
			CollectionName: getEnvOrDefault("VECTOR_INDEX_COLLECTION", "memories"),
		},
		Persona:           os.Getenv("PERSONA"),
		ExtractionEnabled: getEnvOrDefault("EXTRACTION_ENABLED", "true") == "true",
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, memory.NewEngineError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, memory.NewEngineError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate checks that the required providers are set. The embedder is
// optional; everything else is not.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return memory.NewEngineError("Validate", memory.ErrInvalidConfig)
	}
	if c.DocStore.Provider == "" {
		return memory.NewEngineError("Validate", memory.ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files, checking the
// current directory and then up to 5 directory levels up.
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
