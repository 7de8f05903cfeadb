package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"nik-bot/internal/auth"
	"nik-bot/internal/classify"
	"nik-bot/internal/config"
	"nik-bot/internal/discord"
	"nik-bot/internal/embedding"
	"nik-bot/internal/ingest"
	"nik-bot/internal/knowledge"
	"nik-bot/internal/llm"
	"nik-bot/internal/logging"
	"nik-bot/internal/metrics"
	"nik-bot/internal/responder"
	"nik-bot/internal/scheduler"
	"nik-bot/internal/session"
	"nik-bot/internal/storage"
)

const defaultSystemPrompt = "You are Nik Setting. You are not a bot nor an AI. You are a friendly business strategist and marketing consultant. Your responses should be concise, direct, and results-oriented. You speak like an experienced entrepreneur who focuses on performance metrics, conversions, and growth. Your tone is professional but informal and friendly, similar to a high-level sales consultant advising a client. Keep replies short, actionable, and to the point."

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Err(err).Msg(".env file not found")
	}

	cfg := config.New()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	metrics.Serve(cfg.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := knowledge.NewWeaviateStore(knowledge.WeaviateConfig{
		Host:         cfg.WeaviateHost,
		Scheme:       cfg.WeaviateScheme,
		APIKey:       cfg.WeaviateAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		Timeout:      cfg.WeaviateTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init knowledge store")
	}
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure knowledge schema")
	}

	factory := &llm.Factory{
		OpenaiAPIKey:     cfg.OpenAIAPIKey,
		OpenaiBaseURL:    cfg.OpenAIBaseURL,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
		Timeout:          cfg.LLMTimeout,
	}
	llmClient, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create llm client")
	}

	embedder := embedding.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel, cfg.LLMTimeout)
	lookup := knowledge.NewLookup(store, embedder, cfg.UserCertainty, cfg.AssistantCertainty)
	writer := knowledge.NewWriter(store, embedder)
	sessions := session.NewManager(cfg.SessionTimeout, cfg.SessionMaxMessages)

	resp := responder.New(lookup, llmClient, sessions, readSystemPrompt(cfg.SystemPromptPath), cfg.MaxTokens)
	classifier := classify.New(llmClient)

	var adminRepo auth.Repository
	if cfg.AllowlistFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.AllowlistFilePath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to init admin repo")
		} else {
			adminRepo = repo
		}
	}
	authSvc, err := auth.NewWithRepo(adminRepo, cfg.AdminUsernames)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init auth")
	}

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to init interaction recorder")
		} else {
			rec = fr
		}
	}

	learner, err := ingest.NewLearner(ctx, cfg.YouTubeAPIKey, llmClient, writer)
	if err != nil {
		log.Warn().Err(err).Msg("failed to init video learner")
	}

	sched := scheduler.New()
	sched.SetExportFunction(func(ctx context.Context) error {
		n, err := knowledge.ExportToFile(ctx, store, cfg.ExportFilePath, 10000)
		if err != nil {
			return err
		}
		log.Info().Int("records", n).Str("path", cfg.ExportFilePath).Msg("knowledge exported")
		return nil
	})
	if err := sched.Start(cfg.ExportCronSpec); err != nil {
		log.Warn().Err(err).Msg("failed to start export scheduler")
	}
	defer sched.Stop()

	bot, err := discord.New(
		cfg.DiscordBotToken,
		authSvc,
		resp,
		sessions,
		writer,
		lookup,
		classifier,
		rec,
		learner,
		discord.Options{
			GeneralChannelName: cfg.GeneralChannelName,
			BusinessChannelID:  cfg.BusinessChannelID,
			HistoryScanLimit:   cfg.HistoryScanLimit,
			ReplyDelay:         cfg.ReplyDelay,
			TypoRate:           cfg.TypoRate,
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	if err := bot.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("bot stopped with error")
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return defaultSystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("system prompt file not readable, using default persona")
		return defaultSystemPrompt
	}
	return string(data)
}
