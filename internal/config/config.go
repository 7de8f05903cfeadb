package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	DiscordBotToken string `env:"DISCORD_BOT_TOKEN,required"`

	// Channel routing
	GeneralChannelName string   `env:"GENERAL_CHANNEL_NAME" envDefault:"general"`
	BusinessChannelID  string   `env:"BUSINESS_CHANNEL_ID"`
	AdminUsernames     []string `env:"ADMIN_USERNAMES" envSeparator:":"`
	HistoryScanLimit   int      `env:"HISTORY_SCAN_LIMIT" envDefault:"1000"`

	// LLM settings
	LLMProvider      LLMProvider   `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4-1106-preview"`
	EmbeddingModel   string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	MaxTokens        int           `env:"MAX_TOKENS" envDefault:"150"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// Knowledge store
	WeaviateHost       string        `env:"WEAVIATE_HOST,required"`
	WeaviateScheme     string        `env:"WEAVIATE_SCHEME" envDefault:"https"`
	WeaviateAPIKey     string        `env:"WEAVIATE_API_KEY"`
	WeaviateTimeout    time.Duration `env:"WEAVIATE_TIMEOUT" envDefault:"60s"`
	UserCertainty      float64       `env:"USER_CERTAINTY" envDefault:"0.75"`
	AssistantCertainty float64       `env:"ASSISTANT_CERTAINTY" envDefault:"0.70"`
	ExportFilePath     string        `env:"EXPORT_FILE_PATH" envDefault:"data/knowledge_export.json"`
	ExportCronSpec     string        `env:"EXPORT_CRON_SPEC" envDefault:"0 21 * * *"`

	// Sessions
	SessionTimeout     time.Duration `env:"SESSION_TIMEOUT" envDefault:"5m"`
	SessionMaxMessages int           `env:"SESSION_MAX_MESSAGES" envDefault:"40"`

	// Video ingestion
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Reply shaping
	ReplyDelay time.Duration `env:"REPLY_DELAY" envDefault:"10s"`
	TypoRate   float64       `env:"TYPO_RATE" envDefault:"0.02"`

	// Storage
	LogFilePath       string `env:"LOG_FILE_PATH" envDefault:"logs/interactions.jsonl"`
	AllowlistFilePath string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/admins.json"`

	// Observability
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9091"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse config")
	}
	return cfg
}
