package parser

import (
	"regexp"
	"sort"
	"strings"
)

// Compiled patterns are package level and only ever used through the
// stateless Find* methods, so concurrent extraction needs no locking.
var (
	esImportFrom    = regexp.MustCompile(`\bimport\s+(?:type\s+)?[\w*\s{},$]*?\bfrom\s*['"]([^'"\n]+)['"]`)
	esImportBare    = regexp.MustCompile(`\bimport\s*['"]([^'"\n]+)['"]`)
	esExportFrom    = regexp.MustCompile(`\bexport\s+(?:type\s+)?(?:\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s*from\s*['"]([^'"\n]+)['"]`)
	esDynamicImport = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
	esRequire       = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)

	pyImport     = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+(?:[ \t]+as[ \t]+\w+)?(?:[ \t]*,[ \t]*[\w.]+(?:[ \t]+as[ \t]+\w+)?)*)`)
	pyFromImport = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.*)([\w.]*)[ \t]+import[ \t]+(\([^)]*\)|[^\n#;]+)`)

	goImportSingle = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(?:[\w.]+[ \t]+)?["` + "`" + `]([^"` + "`" + `\n]+)["` + "`" + `]`)
	goImportBlock  = regexp.MustCompile(`(?ms)^[ \t]*import[ \t]*\((.*?)\)`)
	goBlockSpec    = regexp.MustCompile(`(?m)^[ \t]*(?:[\w.]+[ \t]+)?["` + "`" + `]([^"` + "`" + `\n]+)["` + "`" + `]`)

	rustUse = regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?use[ \t]+([^;]+);`)
	rustMod = regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?mod[ \t]+(\w+)[ \t]*;`)
)

type match struct {
	offset int
	specs  []string
}

// PatternExtractor extracts specifiers with regular expressions. It is the
// default extractor and the fallback for syntax mode.
type PatternExtractor struct{}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

func (e *PatternExtractor) Extract(content []byte, lang Language) []string {
	var matches []match
	switch {
	case lang.ecmascript():
		matches = ecmascriptMatches(content)
	case lang == LangPython:
		matches = pythonMatches(content)
	case lang == LangGo:
		matches = goMatches(content)
	case lang == LangRust:
		matches = rustMatches(content)
	default:
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].offset < matches[j].offset
	})
	out := newSpecifierList()
	for _, m := range matches {
		for _, spec := range m.specs {
			out.add(spec)
		}
	}
	return out.list()
}

func ecmascriptMatches(content []byte) []match {
	var out []match
	for _, re := range []*regexp.Regexp{esImportFrom, esImportBare, esExportFrom, esDynamicImport, esRequire} {
		for _, loc := range re.FindAllSubmatchIndex(content, -1) {
			out = append(out, match{
				offset: loc[2],
				specs:  []string{string(content[loc[2]:loc[3]])},
			})
		}
	}
	return out
}

func pythonMatches(content []byte) []match {
	var out []match
	for _, loc := range pyImport.FindAllSubmatchIndex(content, -1) {
		out = append(out, match{
			offset: loc[0],
			specs:  pythonImportSpecifiers(string(content[loc[2]:loc[3]])),
		})
	}
	for _, loc := range pyFromImport.FindAllSubmatchIndex(content, -1) {
		dots := loc[3] - loc[2]
		module := string(content[loc[4]:loc[5]])
		names := strings.Split(strings.Trim(string(content[loc[6]:loc[7]]), "()"), ",")
		out = append(out, match{
			offset: loc[0],
			specs:  pythonFromSpecifiers(dots, module, names),
		})
	}
	return out
}

func goMatches(content []byte) []match {
	var out []match
	for _, loc := range goImportSingle.FindAllSubmatchIndex(content, -1) {
		out = append(out, match{
			offset: loc[2],
			specs:  []string{string(content[loc[2]:loc[3]])},
		})
	}
	for _, loc := range goImportBlock.FindAllSubmatchIndex(content, -1) {
		block := content[loc[2]:loc[3]]
		for _, spec := range goBlockSpec.FindAllSubmatchIndex(block, -1) {
			out = append(out, match{
				offset: loc[2] + spec[2],
				specs:  []string{string(block[spec[2]:spec[3]])},
			})
		}
	}
	return out
}

func rustMatches(content []byte) []match {
	var out []match
	for _, loc := range rustUse.FindAllSubmatchIndex(content, -1) {
		if specs := rustUseSpecifiers(string(content[loc[2]:loc[3]])); len(specs) > 0 {
			out = append(out, match{offset: loc[0], specs: specs})
		}
	}
	for _, loc := range rustMod.FindAllSubmatchIndex(content, -1) {
		out = append(out, match{
			offset: loc[0],
			specs:  []string{"./" + string(content[loc[2]:loc[3]])},
		})
	}
	return out
}
