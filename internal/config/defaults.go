package config

const (
	defaultBaseDir     = "~/Portuguese/Anki"
	defaultStateDir    = "~/.local/state/wordmill"
	defaultQueueName   = "quick.jsonl"
	defaultStoreName   = "sayings.csv"
	defaultSnapName    = "last_import.csv"
	defaultStoreKind   = "csv"
	defaultWorksheet   = "Sheet1"
	defaultTransport   = "http"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.2
	defaultTopP        = 0.95
	defaultMaxTokens   = 300
	defaultLLMTimeout  = 60
	defaultLanguageTag = "pt-PT"
	defaultWordScope   = "global"
	defaultSyncURL     = "http://127.0.0.1:8765"
	defaultDeck        = "Portuguese Mastery (pt-PT)"
	defaultNoteModel   = "GPT Vocabulary Automater"
	defaultSyncTimeout = 15
	defaultPingTimeout = 5
	defaultLaunchGrace = 8
	defaultNtfyTimeout = 10
	defaultLogFormat   = "auto"
	defaultLogLevel    = "info"
	defaultLogDays     = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir:  defaultBaseDir,
			StateDir: defaultStateDir,
		},
		Store: Store{
			Backend:   defaultStoreKind,
			Worksheet: defaultWorksheet,
		},
		Enrichment: Enrichment{
			Transport:      defaultTransport,
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			Temperature:    defaultTemperature,
			TopP:           defaultTopP,
			MaxTokens:      defaultMaxTokens,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Cards: Cards{
			LanguageTag: defaultLanguageTag,
		},
		Dedup: Dedup{
			WordScope: defaultWordScope,
		},
		Sync: Sync{
			Enabled:            true,
			URL:                defaultSyncURL,
			Deck:               defaultDeck,
			NoteModel:          defaultNoteModel,
			RequestTimeout:     defaultSyncTimeout,
			PingTimeout:        defaultPingTimeout,
			LaunchGraceSeconds: defaultLaunchGrace,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Completed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogDays,
		},
	}
}
