package validate

import "strings"

// Synonyms maps canonical skill names to the free-text variants seen in
// resumes. Matching is case-insensitive; a canonical name always maps to
// itself.
var Synonyms = map[string][]string{
	"react":            {"reactjs", "react.js", "react js"},
	"node.js":          {"node", "nodejs", "node js"},
	"python":           {"python3", "py"},
	"java":             {},
	"c++":              {"cpp"},
	"c":                {},
	"go":               {"golang"},
	"javascript":       {"js", "ecmascript"},
	"typescript":       {"ts"},
	"sql":              {},
	"postgresql":       {"postgres", "psql"},
	"mysql":            {},
	"mongodb":          {"mongo"},
	"redis":            {},
	"docker":           {},
	"kubernetes":       {"k8s"},
	"aws":              {"amazon web services"},
	"html":             {"html5"},
	"css":              {"css3"},
	"machine learning": {"ml"},
	"data analysis":    {"data analytics"},
	"git":              {"github", "gitlab"},
	"rust":             {},
	"angular":          {"angularjs"},
	"vue":              {"vuejs", "vue.js"},
	"django":           {},
	"flask":            {},
	"spring":           {"spring boot", "springboot"},
	"excel":            {"ms excel", "microsoft excel"},
	"tensorflow":       {},
	"pytorch":          {},
	"linux":            {},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]string {
	idx := make(map[string]string, len(Synonyms)*2)
	for canonical, aliases := range Synonyms {
		idx[canonical] = canonical
		for _, a := range aliases {
			idx[strings.ToLower(a)] = canonical
		}
	}
	return idx
}

// Canonicalize maps a free-text skill name to its controlled-vocabulary
// entry. The second return is false for unrecognized names.
func Canonicalize(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	key := strings.ToLower(trimmed)
	if key == "" {
		return "", false
	}
	canonical, ok := aliasIndex[key]
	if !ok {
		// Unmatched names are kept verbatim so they stay displayable.
		return trimmed, false
	}
	return canonical, true
}
