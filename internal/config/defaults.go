package config

// qualityPresets maps each provider+quality combination to its model choice.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderOpenAI,
		Model:        "gpt-4o",
		Quality:      QualityNormal,
		DataDir:      "data",
		Port:         8080,
		RateLimitRPM: 60,
		Flashcards: FlashcardConfig{
			Limit:              500,
			DedupWindowMinutes: 0,
		},
	}
}

// GetPreset returns the model for the given provider and tier, falling back
// to the normal OpenAI preset for unknown combinations.
func GetPreset(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderOpenAI][QualityNormal]
}
