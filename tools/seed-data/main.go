package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pythonsogood/dbms-nosql/config"
	"github.com/pythonsogood/dbms-nosql/database"
	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/generator"
	"github.com/pythonsogood/dbms-nosql/logger"
	aws_pkg "github.com/pythonsogood/dbms-nosql/pkg/aws"
	ddb "github.com/pythonsogood/dbms-nosql/pkg/dynamodb"
	"github.com/pythonsogood/dbms-nosql/pkg/kafka"
	"github.com/pythonsogood/dbms-nosql/repository"
	"github.com/pythonsogood/dbms-nosql/seeder"
)

type flags struct {
	mongoURI   string
	dbName     string
	seed       string
	sink       string
	configFile string
	out        string
	now        string
	dryRun     bool
}

func main() {
	var f flags
	flag.StringVar(&f.mongoURI, "mongo", "", "MongoDB URI (overrides MONGODB_CONNECTION)")
	flag.StringVar(&f.dbName, "db", "", "MongoDB database name (overrides MONGODB_DATABASE)")
	flag.StringVar(&f.seed, "seed", "", "random seed; the same seed and clock reproduce the dataset")
	flag.StringVar(&f.sink, "sink", "", "where to write: mongo, dynamodb or json")
	flag.StringVar(&f.configFile, "config", "", "YAML generation profile (overrides SEED_CONFIG_FILE)")
	flag.StringVar(&f.out, "out", "", "also write the dataset as JSON to this file")
	flag.StringVar(&f.now, "now", "", "RFC3339 clock for the run (overrides SEED_NOW); pin it with -seed to reproduce a dataset")
	flag.BoolVar(&f.dryRun, "dry-run", false, "generate and verify without connecting to a datastore")
	flag.Parse()

	err := run(context.Background(), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	_ = logger.Log.Sync()
	os.Exit(apperrors.ExitCode(err))
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	var awsCfg *sdkaws.Config
	loadAWS := func() (sdkaws.Config, error) {
		if awsCfg == nil {
			c, err := aws_pkg.LoadAWSConfig(ctx)
			if err != nil {
				return c, apperrors.Config("aws config", err)
			}
			awsCfg = &c
		}
		return *awsCfg, nil
	}

	if os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		ac, err := loadAWS()
		if err != nil {
			return err
		}
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, ac, runID)
		if err != nil {
			return apperrors.Connection("cloudwatch logs", err)
		}
		logger.InitializeWithWriter(cfg.Env, cw)
	} else {
		logger.Initialize(cfg.Env)
	}
	if !cfg.DotenvLoaded {
		logger.Debug(ctx, "no .env file found, using environment")
	}

	if cfg.UseSecrets {
		ac, err := loadAWS()
		if err != nil {
			return err
		}
		if err := cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(ac)); err != nil {
			logger.Warn(ctx, "secrets manager lookup failed, keeping environment value", zap.Error(err))
		}
	}

	if err := cfg.Validate(f.dryRun); err != nil {
		return err
	}

	s := &seeder.Seeder{
		Options:      cfg.Generation,
		WriteTimeout: cfg.WriteTimeout,
		OutputPath:   f.out,
		RunID:        runID,
		Seed:         cfg.Seed,
		Database:     cfg.MongoDatabase,
		Sink:         cfg.Sink,
	}

	var jsonStore *repository.JSONStore
	if !f.dryRun {
		switch cfg.Sink {
		case config.SinkMongo:
			conn, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ConnectTimeout)
			if err != nil {
				return err
			}
			defer func() {
				if err := conn.Close(context.Background()); err != nil {
					logger.Warn(ctx, "disconnect failed", zap.Error(err))
				}
			}()
			if err := conn.EnsureIndexes(ctx); err != nil {
				return err
			}
			s.Store = repository.NewMongoStore(conn.DB)
		case config.SinkDynamoDB:
			ac, err := loadAWS()
			if err != nil {
				return err
			}
			client := ddb.NewClientFromConfig(ac)
			store := repository.NewDynamoStore(client, cfg.DynamoTablePrefix).WithRateLimit(cfg.DynamoBatchRate)
			created, err := ddb.EnsureTables(ctx, client, store.Tables())
			if err != nil {
				return apperrors.Connection("dynamodb tables", err)
			}
			logger.Info(ctx, "connected", zap.String("sink", cfg.Sink), zap.Strings("tables_created", created))
			s.Store = store
		case config.SinkJSON:
			jsonStore = repository.NewJSONStore()
			s.Store = jsonStore
		}
	}

	if cfg.SnapshotBucket != "" || cfg.SNSTopicARN != "" || os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		ac, err := loadAWS()
		if err != nil {
			return err
		}
		if cfg.SnapshotBucket != "" {
			s.Snapshots = aws_pkg.NewSnapshotUploader(aws_pkg.NewS3Client(ac), cfg.SnapshotBucket)
		}
		if cfg.SNSTopicARN != "" {
			s.Notify = append(s.Notify, seeder.Notification{Publisher: aws_pkg.NewSNSClient(ac), Topic: cfg.SNSTopicARN})
		}
		s.Metrics = aws_pkg.NewMetricsClient(ac)
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, runID)
		if err != nil {
			return apperrors.Config("kafka producer", err)
		}
		defer producer.Close()
		s.Notify = append(s.Notify, seeder.Notification{Publisher: producer, Topic: cfg.KafkaTopic})
	}

	s.Provider = newProvider(cfg)
	s.Hasher = newHasher(cfg.PasswordHasher, s.Provider)

	logger.Info(ctx, "seeding started",
		zap.String("sink", cfg.Sink),
		zap.String("database", cfg.MongoDatabase),
		zap.Uint64("seed", cfg.Seed),
		zap.Time("now", s.Provider.Now()),
		zap.Bool("dry_run", f.dryRun),
	)

	summary, err := s.Run(ctx)
	if err != nil {
		logger.Error(ctx, "seeding failed", err, zap.String("kind", string(apperrors.KindOf(err))))
		return err
	}

	if jsonStore != nil {
		if err := jsonStore.WriteFile(cfg.OutputPath); err != nil {
			return apperrors.Write("write "+cfg.OutputPath, err)
		}
		logger.Info(ctx, "dataset written to file", zap.String("path", cfg.OutputPath))
	}

	logger.Info(ctx, "seeding finished",
		zap.Int64("duration_ms", summary.DurationMS),
		zap.Int("warnings", len(summary.Warnings)),
	)
	return nil
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cfg *config.Config, f flags) error {
	if f.mongoURI != "" {
		cfg.MongoURI = f.mongoURI
	}
	if f.dbName != "" {
		cfg.MongoDatabase = f.dbName
	}
	if f.sink != "" {
		cfg.Sink = f.sink
	}
	if f.seed != "" {
		seed, err := strconv.ParseUint(f.seed, 10, 64)
		if err != nil {
			return apperrors.Config("-seed must be a non-negative integer", err)
		}
		cfg.Seed = seed
	}
	if f.now != "" {
		now, err := time.Parse(time.RFC3339, f.now)
		if err != nil {
			return apperrors.Config("-now must be an RFC3339 timestamp", err)
		}
		cfg.Now = now
	}
	return nil
}

// newProvider reads the clock once so every timestamp in the run shares one
// "now". A pinned cfg.Now replaces the wall clock.
func newProvider(cfg *config.Config) *faker.Provider {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	return faker.New(cfg.Seed, now, faker.WithRecentWindow(cfg.RecentWindow))
}

func newHasher(kind string, p *faker.Provider) generator.PasswordHasher {
	if kind == config.HasherBcrypt {
		return generator.BcryptHasher{}
	}
	return generator.NewArgon2Hasher(p, generator.DefaultArgon2Params())
}
