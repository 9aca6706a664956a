package language

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Auto is the source code that asks the gateway to detect the language.
const Auto = "auto"

// Language is a translation language accepted by the gateways.
type Language struct {
	Code string
	Name string
}

// Languages maps accepted codes to the code sent on the wire. Aliases such as
// "zh" resolve to their canonical LibreTranslate code.
var Languages = map[string]Language{
	"ar":      {Code: "ar", Name: "Arabic"},
	"az":      {Code: "az", Name: "Azerbaijani"},
	"bg":      {Code: "bg", Name: "Bulgarian"},
	"bn":      {Code: "bn", Name: "Bengali"},
	"ca":      {Code: "ca", Name: "Catalan"},
	"cs":      {Code: "cs", Name: "Czech"},
	"da":      {Code: "da", Name: "Danish"},
	"de":      {Code: "de", Name: "German"},
	"el":      {Code: "el", Name: "Greek"},
	"en":      {Code: "en", Name: "English"},
	"eo":      {Code: "eo", Name: "Esperanto"},
	"es":      {Code: "es", Name: "Spanish"},
	"et":      {Code: "et", Name: "Estonian"},
	"eu":      {Code: "eu", Name: "Basque"},
	"fa":      {Code: "fa", Name: "Persian"},
	"fi":      {Code: "fi", Name: "Finnish"},
	"fr":      {Code: "fr", Name: "French"},
	"ga":      {Code: "ga", Name: "Irish"},
	"gl":      {Code: "gl", Name: "Galician"},
	"he":      {Code: "he", Name: "Hebrew"},
	"hi":      {Code: "hi", Name: "Hindi"},
	"hu":      {Code: "hu", Name: "Hungarian"},
	"id":      {Code: "id", Name: "Indonesian"},
	"it":      {Code: "it", Name: "Italian"},
	"ja":      {Code: "ja", Name: "Japanese"},
	"ko":      {Code: "ko", Name: "Korean"},
	"lt":      {Code: "lt", Name: "Lithuanian"},
	"lv":      {Code: "lv", Name: "Latvian"},
	"ms":      {Code: "ms", Name: "Malay"},
	"nb":      {Code: "nb", Name: "Norwegian Bokmål"},
	"nl":      {Code: "nl", Name: "Dutch"},
	"pl":      {Code: "pl", Name: "Polish"},
	"pt":      {Code: "pt", Name: "Portuguese"},
	"pt-BR":   {Code: "pt-BR", Name: "Portuguese (Brazil)"},
	"ro":      {Code: "ro", Name: "Romanian"},
	"ru":      {Code: "ru", Name: "Russian"},
	"sk":      {Code: "sk", Name: "Slovak"},
	"sl":      {Code: "sl", Name: "Slovenian"},
	"sq":      {Code: "sq", Name: "Albanian"},
	"sv":      {Code: "sv", Name: "Swedish"},
	"th":      {Code: "th", Name: "Thai"},
	"tl":      {Code: "tl", Name: "Tagalog"},
	"tr":      {Code: "tr", Name: "Turkish"},
	"uk":      {Code: "uk", Name: "Ukrainian"},
	"ur":      {Code: "ur", Name: "Urdu"},
	"vi":      {Code: "vi", Name: "Vietnamese"},
	"zh":      {Code: "zh-Hans", Name: "Chinese (Simplified)"},
	"zh-Hans": {Code: "zh-Hans", Name: "Chinese (Simplified)"},
	"zh-Hant": {Code: "zh-Hant", Name: "Chinese (Traditional)"},
}

// GetLanguage looks up an exact code.
func GetLanguage(code string) (Language, bool) {
	lang, ok := Languages[code]
	return lang, ok
}

// Normalize canonicalizes a user-supplied code ("EN", "en_US", "zh-CN",
// "iw") to the code sent to the gateway. It fails for tags that do not parse
// or that no gateway accepts. When allowAuto is set, "auto" is passed
// through unchanged.
func Normalize(code string, allowAuto bool) (string, error) {
	raw := strings.TrimSpace(code)
	if raw == "" {
		return "", fmt.Errorf("language code is empty")
	}
	if strings.EqualFold(raw, Auto) {
		if allowAuto {
			return Auto, nil
		}
		return "", fmt.Errorf("language %q is only allowed as a source language", Auto)
	}
	if lang, ok := Languages[raw]; ok {
		return lang.Code, nil
	}

	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", raw, err)
	}
	for _, candidate := range candidates(tag) {
		if lang, ok := Languages[candidate]; ok {
			return lang.Code, nil
		}
	}
	return "", fmt.Errorf("unsupported language code %q (see 'pgnct list')", raw)
}

// candidates lists lookup keys for tag from most to least specific.
func candidates(tag language.Tag) []string {
	base, _ := tag.Base()
	script, scriptConf := tag.Script()
	region, regionConf := tag.Region()

	var out []string
	out = append(out, tag.String())
	if regionConf == language.Exact {
		out = append(out, base.String()+"-"+region.String())
	}
	if base.String() == "zh" && scriptConf != language.No {
		out = append(out, "zh-"+script.String())
	}
	if base.String() == "no" {
		out = append(out, "nb")
	}
	out = append(out, base.String())
	return out
}

// LanguageEntry is one row of the supported language listing.
type LanguageEntry struct {
	ID string
	Language
}

// GetSupportedLanguages returns every accepted code sorted by name, then ID.
func GetSupportedLanguages() []LanguageEntry {
	entries := make([]LanguageEntry, 0, len(Languages))
	for id, lang := range Languages {
		entries = append(entries, LanguageEntry{ID: id, Language: lang})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}
