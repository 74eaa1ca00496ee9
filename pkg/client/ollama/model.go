package ollama

import "strings"

// OllamaModel describes the capabilities of a known local model
type OllamaModel struct {
	Name string `json:"name"`

	// Tool indicates whether the model supports native tool calling
	Tool bool `json:"tool"`

	// Think indicates whether the model supports thinking
	Think bool `json:"think"`

	// Context indicates the context length of the model
	Context int `json:"context"`
}

// Capability list from https://ollama.com/search; kept in sync by hand.
var ollamaModels = []OllamaModel{
	{
		Name:    "gpt-oss:latest",
		Tool:    true,
		Think:   true,
		Context: 128000,
	},
	{
		Name:    "gpt-oss:120b",
		Tool:    true,
		Think:   true,
		Context: 128000,
	},
	{
		Name:    "qwen3",
		Tool:    true,
		Think:   true,
		Context: 40000,
	},
	{
		Name:    "llama3.1",
		Tool:    true,
		Think:   false,
		Context: 128000,
	},
}

func findModel(model string) (OllamaModel, bool) {
	modelLower := strings.ToLower(model)
	for _, m := range ollamaModels {
		if strings.Contains(modelLower, strings.ToLower(m.Name)) {
			return m, true
		}
	}
	return OllamaModel{}, false
}

// IsToolCapableModel checks if a model supports native tool calling
func IsToolCapableModel(model string) bool {
	m, ok := findModel(model)
	return ok && m.Tool
}

// IsThinkingCapableModel checks if a model supports thinking/reasoning
func IsThinkingCapableModel(model string) bool {
	m, ok := findModel(model)
	return ok && m.Think
}

// IsModelInKnownList checks if a model is in the known models list
func IsModelInKnownList(model string) bool {
	_, ok := findModel(model)
	return ok
}
