package services

// Language maps a platform language slug onto the external judge's numeric
// language id.
type Language struct {
	Slug    string
	Name    string
	JudgeID int
	Active  bool
}

// SupportedLanguages is a fixed catalog; extend by adding rows. The judge ids
// follow the judge deployment's language table.
var SupportedLanguages = map[string]Language{
	"c":          {Slug: "c", Name: "C (GCC 9.2.0)", JudgeID: 50, Active: true},
	"cpp":        {Slug: "cpp", Name: "C++ (GCC 9.2.0)", JudgeID: 54, Active: true},
	"go":         {Slug: "go", Name: "Go (1.13.5)", JudgeID: 60, Active: true},
	"java":       {Slug: "java", Name: "Java (OpenJDK 13)", JudgeID: 62, Active: true},
	"javascript": {Slug: "javascript", Name: "JavaScript (Node 12)", JudgeID: 63, Active: true},
	"python":     {Slug: "python", Name: "Python (3.8.1)", JudgeID: 71, Active: true},
	"ruby":       {Slug: "ruby", Name: "Ruby (2.7.0)", JudgeID: 72, Active: false},
}

// LookupLanguage resolves a slug to an active catalog entry.
func LookupLanguage(slugName string) (Language, error) {
	lang, ok := SupportedLanguages[slugName]
	if !ok || !lang.Active {
		return Language{}, ErrLanguageNotSupported
	}
	return lang, nil
}
