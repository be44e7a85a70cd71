package app

import (
	"context"
	"fmt"
	"time"

	"talent-match/internal/config"
	"talent-match/internal/contentstore"
	"talent-match/internal/database"
	"talent-match/internal/database/migration"
	dbpostgres "talent-match/internal/database/postgres"
	"talent-match/internal/domain/scoring"
	"talent-match/internal/extract"
	"talent-match/internal/extract/genai"
	"talent-match/internal/infrastructure/cache"
	"talent-match/internal/infrastructure/queue"
	"talent-match/internal/logger"
	"talent-match/internal/pipeline"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"
	"talent-match/internal/ws"
)

// Container wires the full dependency graph once. The HTTP server and the
// parse worker are separate binaries sharing this wiring; each uses the
// parts it needs.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Queue  *queue.RabbitMQ
	Blobs  *contentstore.Store

	Applicants      repository.ApplicantRepository
	ParseResults    repository.ParseResultRepository
	Recommendations repository.RecommendationRepository

	Ingest           usecase.IngestUsecase
	Scoring          usecase.ScoringUsecase
	RecommendationUC usecase.RecommendationUsecase
	PipelineStatus   usecase.PipelineStatusUsecase

	Parse *pipeline.Service
}

func NewContainer(cfg config.Config) (*Container, error) {
	logger.Init(cfg.App.LogLevel, cfg.App.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migration.Run(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisCache := cache.NewRedis(cfg.Redis, logger.For("cache"))

	mq, err := queue.NewRabbitMQ(cfg.Queue, logger.For("queue"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect queue: %w", err)
	}

	blobs, err := contentstore.New(cfg.Storage.Root, logger.For("contentstore"))
	if err != nil {
		mq.Close()
		db.Close()
		return nil, fmt.Errorf("open content store: %w", err)
	}

	applicantRepo := repository.NewPostgresApplicantRepository(db)
	documentRepo := repository.NewPostgresDocumentRepository(db)
	parseResultRepo := repository.NewPostgresParseResultRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db, logger.For("repository"))
	recommendationRepo := repository.NewPostgresRecommendationRepository(db)
	statusRepo := repository.NewPostgresPipelineStatusRepository(db)

	genaiClient := genai.NewClient(cfg.GenAI, logger.For("genai"))
	profileExtractor := genai.NewProfileExtractor(genaiClient, redisCache, cfg.Parsing.ExtractorVersion, logger.For("genai"))
	textExtractor := extract.New(genaiClient, extract.Config{
		MinAlphaPerPage: cfg.Parsing.MinAlphaPerPage,
		MinTotalChars:   cfg.Parsing.MinTotalChars,
		OCRTimeout:      cfg.GenAI.OCRTimeout,
	}, logger.For("extract"))

	weights := scoring.Weights{
		Required:        cfg.Scoring.RequiredWeight,
		Optional:        cfg.Scoring.OptionalWeight,
		Margin:          cfg.Scoring.MarginWeight,
		Freshness:       cfg.Scoring.FreshnessWeight,
		MarginCapYears:  cfg.Scoring.MarginCapYears,
		FreshnessWindow: cfg.Scoring.FreshnessWindow,
	}
	scoringUC := usecase.NewScoringUsecase(parseResultRepo, catalogRepo, recommendationRepo, weights, cfg.Scoring.Workers, logger.For("scoring"))

	notifier := ws.NewNotifier(redisCache, ws.EventsChannel, logger.For("notify"))

	parseSvc := pipeline.NewService(
		blobs,
		applicantRepo,
		parseResultRepo,
		textExtractor,
		profileExtractor,
		redisCache,
		scoringUC,
		notifier,
		cfg.Parsing,
		logger.For("pipeline"),
	)

	ingestUC := usecase.NewIngestUsecase(blobs, documentRepo, applicantRepo, mq, redisCache, logger.For("ingest"))
	recommendationUC := usecase.NewRecommendationUsecase(recommendationRepo, applicantRepo, logger.For("recommendation"))
	pipelineStatusUC := usecase.NewPipelineStatusUsecase(statusRepo, logger.For("status"))

	return &Container{
		Config:           cfg,
		DB:               db,
		Cache:            redisCache,
		Queue:            mq,
		Blobs:            blobs,
		Applicants:       applicantRepo,
		ParseResults:     parseResultRepo,
		Recommendations:  recommendationRepo,
		Ingest:           ingestUC,
		Scoring:          scoringUC,
		RecommendationUC: recommendationUC,
		PipelineStatus:   pipelineStatusUC,
		Parse:            parseSvc,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Queue != nil {
		c.Queue.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
