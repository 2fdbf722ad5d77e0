package index

import (
	"path"
	"strings"
)

// languageByExtension maps a file extension to the language tag stored
// on its FileRecord. Extensions outside this map (but still eligible
// per C1) get the extension itself, minus its dot, as the tag.
var languageByExtension = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".rs":   "rust",
	".java": "java",
	".cs":   "csharp",
	".php":  "php",
	".rb":   "ruby",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
}

// majorCodeLanguages get language_weight 1.0 in the base score function
// (§4.4); everything else in languageByExtension is config/markup at
// 0.7; anything unrecognized is 0.5.
var majorCodeLanguages = map[string]bool{
	"go": true, "javascript": true, "typescript": true,
	"python": true, "rust": true, "java": true,
	"csharp": true, "php": true, "ruby": true,
}

// LanguageOf derives the language tag for p from its extension.
func LanguageOf(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

// IsMajorCodeLanguage reports whether lang is one of the languages
// weighted 1.0 in the base score function, as opposed to markup/config
// languages or unrecognized extensions.
func IsMajorCodeLanguage(lang string) bool {
	return majorCodeLanguages[lang]
}

func languageWeight(lang string) float64 {
	switch {
	case majorCodeLanguages[lang]:
		return 1.0
	case lang == "markdown" || lang == "json" || lang == "yaml":
		return 0.7
	default:
		return 0.5
	}
}
