package capability

// Exports for testing. These let black-box tests inject fake provider
// clients without widening the public API.

var (
	NewOpenAIWithClient = func(client chatCompleter, provider string, legacyMaxTokens bool, opts ...Option) *OpenAI {
		return newOpenAIWithClient(client, provider, legacyMaxTokens, newSettings(opts))
	}
	NewGeminiWithModels = func(models contentGenerator, opts ...Option) *Gemini {
		return newGeminiWithModels(models, newSettings(opts))
	}
)
