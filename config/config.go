package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/generator"
)

const (
	SinkMongo    = "mongo"
	SinkDynamoDB = "dynamodb"
	SinkJSON     = "json"

	HasherArgon2 = "argon2id"
	HasherBcrypt = "bcrypt"

	defaultDatabase       = "online_shopping"
	defaultConnectionName = "seed/MONGODB_CONNECTION"
	generationEnvPrefix   = "SEED_"
)

// rangeKeys are the generation options that take a min/max pair.
var rangeKeys = []string{
	"addresses_per_user",
	"orders_per_user",
	"items_per_order",
	"item_quantity",
	"product_quantity",
	"images_per_product",
	"review_sentences",
}

// Config holds everything one seeding run needs.
type Config struct {
	Env string // APP_ENV: "production" switches the logger to JSON

	MongoURI       string // MONGODB_CONNECTION, falls back to MONGO_DB_URL
	MongoDatabase  string // MONGODB_DATABASE (default: online_shopping)
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration // SEED_WRITE_TIMEOUT, per collection

	Seed           uint64        // SEED_RANDOM_SEED; 0 draws a random seed
	Now            time.Time     // SEED_NOW (RFC3339); zero means the wall clock
	RecentWindow   time.Duration // SEED_RECENT_WINDOW
	PasswordHasher string        // SEED_PASSWORD_HASHER: argon2id or bcrypt

	Sink              string  // SEED_SINK: mongo, dynamodb or json
	OutputPath        string  // SEED_OUTPUT, used by the json sink
	DynamoTablePrefix string  // DDB_TABLE_PREFIX
	DynamoBatchRate   float64 // DDB_BATCH_RATE: BatchWriteItem calls per second, 0 for no cap

	SnapshotBucket string // SEED_SNAPSHOT_BUCKET: upload a JSON snapshot to S3 when set
	SNSTopicARN    string // SEED_SNS_TOPIC_ARN: announce the finished run when set

	KafkaBrokers []string // SEED_KAFKA_BROKERS, comma separated: announce on Kafka when set
	KafkaTopic   string   // SEED_KAFKA_TOPIC

	UseSecrets           bool   // AWS_USE_SECRETS
	ConnectionSecretName string // MONGODB_CONNECTION_SECRET

	// DotenvLoaded reports whether a .env file was found.
	DotenvLoaded bool

	Generation generator.Options
}

// SecretGetter reads a named secret, e.g. from AWS Secrets Manager.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Load reads .env, the environment and, when profilePath (or SEED_CONFIG_FILE)
// names a YAML file, a generation profile. SEED_* variables override the profile.
func Load(profilePath string) (*Config, error) {
	cfg := &Config{}
	cfg.DotenvLoaded = godotenv.Load() == nil

	cfg.Env = getEnv("APP_ENV", "development")
	cfg.MongoURI = firstNonEmpty(os.Getenv("MONGODB_CONNECTION"), os.Getenv("MONGO_DB_URL"))
	cfg.MongoDatabase = firstNonEmpty(os.Getenv("MONGODB_DATABASE"), os.Getenv("MONGO_DB_NAME"), defaultDatabase)
	cfg.Sink = strings.ToLower(getEnv("SEED_SINK", SinkMongo))
	cfg.OutputPath = getEnv("SEED_OUTPUT", "dataset.json")
	cfg.DynamoTablePrefix = os.Getenv("DDB_TABLE_PREFIX")
	cfg.SnapshotBucket = os.Getenv("SEED_SNAPSHOT_BUCKET")
	cfg.SNSTopicARN = os.Getenv("SEED_SNS_TOPIC_ARN")
	cfg.KafkaBrokers = splitList(os.Getenv("SEED_KAFKA_BROKERS"))
	cfg.KafkaTopic = getEnv("SEED_KAFKA_TOPIC", "seed-events")
	cfg.PasswordHasher = strings.ToLower(getEnv("SEED_PASSWORD_HASHER", HasherArgon2))
	cfg.UseSecrets = os.Getenv("AWS_USE_SECRETS") == "true"
	cfg.ConnectionSecretName = getEnv("MONGODB_CONNECTION_SECRET", defaultConnectionName)

	var err error
	if cfg.Seed, err = parseUint(os.Getenv("SEED_RANDOM_SEED")); err != nil {
		return nil, apperrors.Config("SEED_RANDOM_SEED", err)
	}
	if cfg.ConnectTimeout, err = parseDuration(os.Getenv("SEED_CONNECT_TIMEOUT"), 10*time.Second); err != nil {
		return nil, apperrors.Config("SEED_CONNECT_TIMEOUT", err)
	}
	if cfg.WriteTimeout, err = parseDuration(os.Getenv("SEED_WRITE_TIMEOUT"), 30*time.Second); err != nil {
		return nil, apperrors.Config("SEED_WRITE_TIMEOUT", err)
	}
	if cfg.DynamoBatchRate, err = parseFloat(os.Getenv("DDB_BATCH_RATE"), 10); err != nil {
		return nil, apperrors.Config("DDB_BATCH_RATE", err)
	}
	if cfg.RecentWindow, err = parseDuration(os.Getenv("SEED_RECENT_WINDOW"), 24*time.Hour); err != nil {
		return nil, apperrors.Config("SEED_RECENT_WINDOW", err)
	}
	if v := os.Getenv("SEED_NOW"); v != "" {
		if cfg.Now, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, apperrors.Config("SEED_NOW", err)
		}
	}

	if profilePath == "" {
		profilePath = os.Getenv("SEED_CONFIG_FILE")
	}
	cfg.Generation, err = LoadGenerationOptions(profilePath)
	if err != nil {
		return nil, apperrors.Config("generation options", err)
	}

	return cfg, nil
}

// LoadGenerationOptions starts from generator.DefaultOptions, applies the YAML
// profile at path (if any) and then SEED_* environment overrides, e.g.
// SEED_USER_COUNT=20 or SEED_ITEMS_PER_ORDER_MAX=6.
func LoadGenerationOptions(path string) (generator.Options, error) {
	opts := generator.DefaultOptions()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return opts, errors.Wrapf(err, "read generation profile %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: generationEnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyToPath(key), value
		},
	}), nil); err != nil {
		return opts, errors.Wrap(err, "load SEED_* environment")
	}

	if err := k.Unmarshal("", &opts); err != nil {
		return opts, errors.Wrap(err, "decode generation options")
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate checks the settings the chosen sink depends on.
func (c *Config) Validate(dryRun bool) error {
	switch c.Sink {
	case SinkMongo, SinkDynamoDB, SinkJSON:
	default:
		return apperrors.Config("SEED_SINK must be one of mongo, dynamodb, json; got "+c.Sink, nil)
	}
	switch c.PasswordHasher {
	case HasherArgon2, HasherBcrypt:
	default:
		return apperrors.Config("SEED_PASSWORD_HASHER must be argon2id or bcrypt; got "+c.PasswordHasher, nil)
	}
	if !dryRun && c.Sink == SinkMongo && c.MongoURI == "" {
		return apperrors.Config("MONGODB_CONNECTION must be set or provided via -mongo", nil)
	}
	if c.Sink == SinkJSON && c.OutputPath == "" {
		return apperrors.Config("SEED_OUTPUT must name a file for the json sink", nil)
	}
	return nil
}

// ApplySecrets replaces the connection string with the one held in the secret
// store. A failed lookup keeps the environment value.
func (c *Config) ApplySecrets(ctx context.Context, secrets SecretGetter) error {
	uri, err := secrets.GetSecret(ctx, c.ConnectionSecretName)
	if err != nil {
		return errors.Wrapf(err, "read secret %s", c.ConnectionSecretName)
	}
	if uri != "" {
		c.MongoURI = uri
	}
	return nil
}

// envKeyToPath maps SEED_ITEMS_PER_ORDER_MIN to items_per_order.min.
func envKeyToPath(key string) string {
	path := strings.ToLower(strings.TrimPrefix(key, generationEnvPrefix))
	for _, rk := range rangeKeys {
		for _, bound := range []string{"min", "max"} {
			if path == rk+"_"+bound {
				return rk + "." + bound
			}
		}
	}
	return path
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, errors.Wrapf(err, "parse %q", s)
}

func parseFloat(s string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, errors.Wrapf(err, "parse %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse duration %q", s)
	}
	return d, nil
}
