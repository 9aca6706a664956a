// Package metadata lists the Gemini models pgnct offers for comment
// translation.
package metadata

// DefaultGeminiModel is used when neither GEMINI_MODEL nor --model is set.
const DefaultGeminiModel = "gemini-2.5-flash"

type GeminiModel struct {
	ID    string
	Label string
	// Preview models may change or disappear without notice.
	Preview bool
}

var GeminiModels = []GeminiModel{
	{ID: "gemini-2.5-flash", Label: "Gemini 2.5 Flash"},
	{ID: "gemini-2.5-flash-lite", Label: "Gemini 2.5 Flash-Lite"},
	{ID: "gemini-2.5-pro", Label: "Gemini 2.5 Pro"},
	{ID: "gemini-3-flash-preview", Label: "Gemini 3 Flash (preview)", Preview: true},
	{ID: "gemini-3-pro-preview", Label: "Gemini 3 Pro (preview)", Preview: true},
}

func GeminiModelIDs() []string {
	ids := make([]string, 0, len(GeminiModels))
	for _, m := range GeminiModels {
		ids = append(ids, m.ID)
	}
	return ids
}

// LookupGeminiModel reports whether modelID is a listed model. Unlisted IDs
// are still passed to the API.
func LookupGeminiModel(modelID string) (GeminiModel, bool) {
	for _, m := range GeminiModels {
		if m.ID == modelID {
			return m, true
		}
	}
	return GeminiModel{ID: modelID, Label: modelID}, false
}
