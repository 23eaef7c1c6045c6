package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// QualityTier controls the model selection and the speed/cost trade-off.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// Config is the top-level tutorloop configuration, corresponding to
// .tutorloop.yml.
type Config struct {
	Provider        ProviderType    `yaml:"provider" koanf:"provider"`
	Model           string          `yaml:"model" koanf:"model"`
	Quality         QualityTier     `yaml:"quality" koanf:"quality"`
	DataDir         string          `yaml:"data_dir" koanf:"data_dir"`
	Port            int             `yaml:"port" koanf:"port"`
	AllowAllOrigins bool            `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RateLimitRPM    int             `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	Flashcards      FlashcardConfig `yaml:"flashcards" koanf:"flashcards"`
}

// FlashcardConfig tunes flashcard curation. A zero DedupWindowMinutes
// deduplicates over the entire session.
type FlashcardConfig struct {
	Limit              int `yaml:"limit" koanf:"limit"`
	DedupWindowMinutes int `yaml:"dedup_window_minutes" koanf:"dedup_window_minutes"`
}
