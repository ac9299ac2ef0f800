package types

import "strings"

// Language is the identifier of a programming language accepted by the
// execution service.
type Language string

// Supported languages.
const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageTypeScript Language = "typescript"
)

// DefaultLanguage is used when no language has been chosen yet.
const DefaultLanguage = LanguageJavaScript

// LanguageInfo describes how a language is presented to the user.
type LanguageInfo struct {
	// Label is the human-readable name of the language.
	Label string `json:"label"`

	// Extension is the file extension used when source is written to disk
	// or archived.
	Extension string `json:"extension"`

	// Template is the starter code shown when the user has no saved solution.
	Template string `json:"template"`
}

var languages = map[Language]LanguageInfo{
	LanguageJavaScript: {
		Label:     "JavaScript",
		Extension: "js",
		Template:  "// Write your JavaScript code here\nfunction solution() {\n  // Your code here\n}\n\nsolution();",
	},
	LanguagePython: {
		Label:     "Python",
		Extension: "py",
		Template:  "# Write your Python code here\ndef solution():\n    # Your code here\n    pass\n\nsolution()",
	},
	LanguageJava: {
		Label:     "Java",
		Extension: "java",
		Template:  "// Write your Java code here\npublic class Solution {\n    public static void main(String[] args) {\n        // Your code here\n    }\n}",
	},
	LanguageCPP: {
		Label:     "C++",
		Extension: "cpp",
		Template:  "// Write your C++ code here\n#include <iostream>\nusing namespace std;\n\nint main() {\n    // Your code here\n    return 0;\n}",
	},
	LanguageCSharp: {
		Label:     "C#",
		Extension: "cs",
		Template:  "// Write your C# code here\nusing System;\n\nclass Program {\n    static void Main() {\n        // Your code here\n    }\n}",
	},
	LanguageTypeScript: {
		Label:     "TypeScript",
		Extension: "ts",
		Template:  "// Write your TypeScript code here\nfunction solution(): void {\n  // Your code here\n}\n\nsolution();",
	},
}

// ParseLanguage looks up a language by its identifier, ignoring case and
// surrounding whitespace.
func ParseLanguage(raw string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := languages[lang]
	return lang, ok
}

// Info returns the presentation details of the language. Unknown languages
// get an empty template and a "txt" extension.
func (l Language) Info() LanguageInfo {
	if info, ok := languages[l]; ok {
		return info
	}
	return LanguageInfo{Label: string(l), Extension: "txt"}
}

// Template returns the starter code for the language.
func (l Language) Template() string {
	return l.Info().Template
}

// Valid reports whether the language is supported.
func (l Language) Valid() bool {
	_, ok := languages[l]
	return ok
}

// Languages returns every supported language in a stable order.
func Languages() []Language {
	return []Language{
		LanguageJavaScript,
		LanguagePython,
		LanguageJava,
		LanguageCPP,
		LanguageCSharp,
		LanguageTypeScript,
	}
}
