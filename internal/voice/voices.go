package voice

import "sort"

// DefaultKey is the voice used when a request names no voice or an unknown one.
const DefaultKey = "aryan_default"

// descriptions maps voice keys to the natural-language style prompts the
// synthesis engine conditions on. The set is fixed; unknown keys fall back
// to DefaultKey rather than erroring.
var descriptions = map[string]string{
	"aryan_default":    "Aryan speaks in a warm, respectful tone suitable for Sanskrit conversation while ensuring proper halant pronunciations and clear consonant clusters",
	"aryan_scholarly":  "Aryan recites Sanskrit with scholarly precision and poetic sensibility while ensuring proper halant pronunciations and clear consonant clusters.",
	"aryan_meditative": "Aryan speaks in a serene, meditative tone with slow, deliberate pacing while ensuring proper halant pronunciations and clear consonant clusters.",
	"priya_default":    "Priya speaks in a warm, respectful tone suitable for Sanskrit conversation while ensuring proper halant pronunciations and clear consonant clusters, with a feminine voice quality.",
}

// Describe returns the style description for a voice key, along with the key
// actually resolved. Unknown keys resolve to the default voice.
func Describe(key string) (resolvedKey, description string) {
	if desc, ok := descriptions[key]; ok {
		return key, desc
	}
	return DefaultKey, descriptions[DefaultKey]
}

// Known reports whether key names a voice in the catalog.
func Known(key string) bool {
	_, ok := descriptions[key]
	return ok
}

// List returns all voice keys in stable order.
func List() []string {
	keys := make([]string, 0, len(descriptions))
	for k := range descriptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Descriptions returns a copy of the full catalog.
func Descriptions() map[string]string {
	out := make(map[string]string, len(descriptions))
	for k, v := range descriptions {
		out[k] = v
	}
	return out
}
