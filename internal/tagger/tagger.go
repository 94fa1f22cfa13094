package tagger

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"ai-image-decoder/internal/model"
)

const (
	LexiconConfidence   = 1.0
	HeuristicConfidence = 0.5

	minSubjectRunes = 3
	maxSubjectWords = 6
)

var (
	weightSuffix = regexp.MustCompile(`:\s*-?\d*\.?\d+\s*$`)
	extraNetwork = regexp.MustCompile(`^<(lora|lyco|hypernet):([^:>]+)(?::[^>]*)?>$`)
	unescape     = strings.NewReplacer(`\(`, "(", `\)`, ")", `\[`, "[", `\]`, "]")
	whitespace   = regexp.MustCompile(`\s+`)
)

// NormalizeName folds case, turns underscores into spaces and collapses
// whitespace.
func NormalizeName(s string) string {
	s = cases.Fold().String(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Extract derives tags for one image. The result holds at most one link per
// (name, category); when a pair repeats the higher confidence is kept.
func Extract(prompt, negative string, settings map[string]any) []model.TagLink {
	var acc accumulator

	for _, seg := range Segments(prompt) {
		if m := extraNetwork.FindStringSubmatch(seg); m != nil {
			acc.add(m[2], model.CategoryModel, LexiconConfidence, model.ProvenancePrompt)
			continue
		}
		name := NormalizeName(clean(seg))
		if cat, ok := lexicon[name]; ok {
			acc.add(name, cat, LexiconConfidence, model.ProvenancePrompt)
			continue
		}
		if isSubject(name) {
			acc.add(name, model.CategorySubject, HeuristicConfidence, model.ProvenancePrompt)
		}
	}

	for _, seg := range Segments(negative) {
		if extraNetwork.MatchString(seg) {
			continue
		}
		name := NormalizeName(clean(seg))
		if utf8.RuneCountInString(name) >= 2 && hasLetterOrDigit(name) {
			acc.add(name, model.CategoryNegative, LexiconConfidence, model.ProvenancePrompt)
		}
	}

	if m, ok := settings["Model"].(string); ok {
		acc.add(m, model.CategoryModel, LexiconConfidence, model.ProvenanceMetadata)
	}
	if l, ok := settings["Lora"].(string); ok {
		for _, name := range strings.Split(l, ", ") {
			acc.add(name, model.CategoryModel, LexiconConfidence, model.ProvenanceMetadata)
		}
	}
	return acc.links
}

// Segments splits prompt text on commas, newlines and BREAK outside any
// bracket pair. Segments that were weighted groups, like "(a, b:1.1)", are
// split again after their wrapper is removed.
func Segments(prompt string) []string {
	var out []string
	for _, raw := range splitTopLevel(prompt) {
		seg := strings.TrimSpace(raw)
		if seg == "" || seg == "BREAK" {
			continue
		}
		if extraNetwork.MatchString(seg) {
			out = append(out, seg)
			continue
		}
		if inner := clean(seg); inner != seg && strings.ContainsAny(inner, ",\n") {
			out = append(out, Segments(inner)...)
			continue
		}
		out = append(out, seg)
	}
	return out
}

func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			i++
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case ',', '\n':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		case ' ':
			if depth == 0 && strings.HasPrefix(s[i:], " BREAK ") {
				out = append(out, s[start:i])
				start = i + len(" BREAK ")
				i = start - 1
			}
		}
	}
	return append(out, s[start:])
}

// clean removes emphasis wrappers and a trailing weight, repeatedly, then
// unescapes literal brackets.
func clean(seg string) string {
	s := strings.TrimSpace(seg)
	for {
		before := s
		s = stripWrapper(s)
		s = strings.TrimSpace(weightSuffix.ReplaceAllString(s, ""))
		if s == before {
			break
		}
	}
	return strings.TrimSpace(unescape.Replace(s))
}

func stripWrapper(s string) string {
	if len(s) < 2 {
		return s
	}
	var closer byte
	switch s[0] {
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case s[0]:
			depth++
		case closer:
			depth--
			if depth == 0 {
				if i != len(s)-1 {
					return s
				}
				return strings.TrimSpace(s[1:i])
			}
		}
	}
	return s
}

func isSubject(name string) bool {
	if utf8.RuneCountInString(name) < minSubjectRunes || !hasLetterOrDigit(name) {
		return false
	}
	return len(strings.Fields(name)) <= maxSubjectWords
}

func hasLetterOrDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

type accumulator struct {
	links []model.TagLink
	index map[string]int
}

func (a *accumulator) add(name string, cat model.TagCategory, conf float64, prov model.Provenance) {
	if cat == model.CategoryModel {
		name = strings.TrimSpace(cases.Fold().String(name))
	}
	if name == "" {
		return
	}
	if a.index == nil {
		a.index = make(map[string]int)
	}
	key := string(cat) + "\x00" + name
	if i, ok := a.index[key]; ok {
		if conf > a.links[i].Confidence {
			a.links[i].Confidence = conf
			a.links[i].Provenance = prov
		}
		return
	}
	a.index[key] = len(a.links)
	a.links = append(a.links, model.TagLink{Name: name, Category: cat, Confidence: conf, Provenance: prov})
}
