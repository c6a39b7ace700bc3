// Package config loads and validates application configuration from YAML
// files with environment-variable overrides, one typed struct per
// pipeline stage plus the optional ambient subsystems (Postgres, Kafka,
// Redis, metrics). Grounded on the teacher's pkg/config.Load /
// defaultConfig / applyEnvOverrides (pkg/config/config.go), generalised
// from the teacher's service-oriented sections to the batch pipeline's
// stage-oriented ones.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration shared by every msidx binary.
// Each binary reads only the sections it needs.
type Config struct {
	Parser   ParserConfig   `yaml:"parser"`
	Merge    MergeConfig    `yaml:"merge"`
	Stats    StatsConfig    `yaml:"stats"`
	Query    QueryConfig    `yaml:"query"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ParserConfig controls cmd/msparse.
type ParserConfig struct {
	InputPath  string `yaml:"inputPath"`
	OutputDir  string `yaml:"outputDir"`
	FlushBytes int64  `yaml:"flushBytes"`
}

// MergeConfig controls cmd/msmerge.
type MergeConfig struct {
	PartitionDir string `yaml:"partitionDir"`
	IndexPath    string `yaml:"indexPath"`
	LexiconPath  string `yaml:"lexiconPath"`
}

// StatsConfig controls cmd/msstats.
type StatsConfig struct {
	DocLengthsPath string `yaml:"docLengthsPath"`
	AvgDLPath      string `yaml:"avgdlPath"`
}

// QueryConfig controls cmd/msquery and cmd/msbatch.
type QueryConfig struct {
	IndexPath      string        `yaml:"indexPath"`
	LexiconPath    string        `yaml:"lexiconPath"`
	PageTablePath  string        `yaml:"pageTablePath"`
	PassagesPath   string        `yaml:"passagesPath"`
	DocLengthsPath string        `yaml:"docLengthsPath"`
	AvgDLPath      string        `yaml:"avgdlPath"`
	K1             float64       `yaml:"k1"`
	B              float64       `yaml:"b"`
	TopK           int           `yaml:"topK"`
	BatchTopK      int           `yaml:"batchTopK"`
	QueriesPath    string        `yaml:"queriesPath"`
	RunOutputPath  string        `yaml:"runOutputPath"`
	HTTPPort       int           `yaml:"httpPort"`
	CacheTTL       time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds the optional run-ledger database connection.
// Host == "" disables the catalog entirely.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether a catalog connection was configured.
func (p PostgresConfig) Enabled() bool { return p.Host != "" }

// KafkaConfig holds the optional pipeline-event producer settings.
// len(Brokers) == 0 disables event publishing entirely.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RedisConfig holds the optional query result cache settings. Addr == ""
// disables caching entirely.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus /metrics endpoint that
// cmd/msquery mounts on its HTTP API in -http mode. Port is not read by
// any binary.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if path is non-empty) over a set of
// defaults, then applies MSIDX_* environment-variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			OutputDir:  "./data",
			FlushBytes: 1 << 30,
		},
		Merge: MergeConfig{
			PartitionDir: "./data",
			IndexPath:    "./data/final_index.bin",
			LexiconPath:  "./data/lexicon.txt",
		},
		Stats: StatsConfig{
			DocLengthsPath: "./data/doc_lengths.txt",
			AvgDLPath:      "./data/avgdl.txt",
		},
		Query: QueryConfig{
			IndexPath:      "./data/final_index.bin",
			LexiconPath:    "./data/lexicon.txt",
			PageTablePath:  "./data/page_table.txt",
			PassagesPath:   "./data/passages.bin",
			DocLengthsPath: "./data/doc_lengths.txt",
			AvgDLPath:      "./data/avgdl.txt",
			K1:             1.5,
			B:              0.75,
			TopK:           10,
			BatchTopK:      1000,
			QueriesPath:    "./data/queries.tsv",
			RunOutputPath:  "./data/run.trec",
			HTTPPort:       8080,
			CacheTTL:       60 * time.Second,
		},
		Postgres: PostgresConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MSIDX_PARSER_INPUT_PATH"); v != "" {
		cfg.Parser.InputPath = v
	}
	if v := os.Getenv("MSIDX_PARSER_OUTPUT_DIR"); v != "" {
		cfg.Parser.OutputDir = v
	}
	if v := os.Getenv("MSIDX_PARSER_FLUSH_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Parser.FlushBytes = n
		}
	}
	if v := os.Getenv("MSIDX_QUERY_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Query.K1 = f
		}
	}
	if v := os.Getenv("MSIDX_QUERY_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Query.B = f
		}
	}
	if v := os.Getenv("MSIDX_QUERY_TOPK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Query.TopK = n
		}
	}
	if v := os.Getenv("MSIDX_QUERY_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Query.HTTPPort = n
		}
	}
	if v := os.Getenv("MSIDX_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("MSIDX_POSTGRES_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = n
		}
	}
	if v := os.Getenv("MSIDX_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("MSIDX_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("MSIDX_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("MSIDX_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MSIDX_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("MSIDX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("MSIDX_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MSIDX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MSIDX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("MSIDX_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
}
