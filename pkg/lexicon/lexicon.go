// Package lexicon matches weighted keyword phrases in free text with a single
// Aho-Corasick automaton. Patterns and text go through the same canonicalizer
// so "Hopeful!" and "hopeful" hit the same term.
package lexicon

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// ============================================================================
// Canonicalizer
// ============================================================================

// isJoiner reports punctuation kept inside words ("self-aware", "don't").
func isJoiner(r rune) bool {
	switch r {
	case '\'', '-', '_':
		return true
	default:
		return false
	}
}

func fold(r rune) rune {
	c := unicode.ToLower(r)
	switch c {
	case '’', '‘':
		return '\''
	case '–', '—':
		return '-'
	}
	return c
}

func keep(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || isJoiner(c)
}

// Canonicalize lowercases s, keeps letters, digits and joiners, and collapses
// every other run of characters into a single space.
func Canonicalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	lastWasSpace := true
	for _, ch := range s {
		c := fold(ch)
		if keep(c) {
			out.WriteRune(c)
			lastWasSpace = false
			continue
		}
		if !lastWasSpace {
			out.WriteByte(' ')
			lastWasSpace = true
		}
	}

	return strings.TrimSuffix(out.String(), " ")
}

// Tokenize splits canonicalized text into words.
func Tokenize(s string) []string {
	return strings.Fields(Canonicalize(s))
}

// offsetMap maps each byte of Canonicalize(original) back to a byte offset in
// original, plus one trailing entry for the end of the string. Offsets are
// the byte indexes range yields, so an invalid byte counts as one byte.
func offsetMap(original string) []int {
	mapping := make([]int, 0, len(original)+1)
	lastWasSpace := true
	for pos, ch := range original {
		c := fold(ch)
		if keep(c) {
			for i := 0; i < utf8.RuneLen(c); i++ {
				mapping = append(mapping, pos)
			}
			lastWasSpace = false
		} else if !lastWasSpace {
			mapping = append(mapping, pos)
			lastWasSpace = true
		}
	}
	return append(mapping, len(original))
}

// ============================================================================
// Dictionary
// ============================================================================

// Term is a phrase tagged with a category and a signed weight.
type Term struct {
	Phrase string
	Tag    string
	Weight float64
}

// Match is a term found in text. Start and End are byte offsets into the
// original text.
type Match struct {
	Term  Term
	Start int
	End   int
	Text  string
}

// Dictionary is an immutable compiled lexicon. Safe for concurrent use.
type Dictionary struct {
	ac       *ahocorasick.Automaton
	patterns []string
	terms    [][]Term // pattern index -> terms sharing that surface form
}

// Compile builds a Dictionary. Terms whose phrase canonicalizes to the empty
// string are skipped.
func Compile(terms []Term) (*Dictionary, error) {
	d := &Dictionary{}
	index := make(map[string]int)

	for _, t := range terms {
		key := Canonicalize(t.Phrase)
		if key == "" {
			continue
		}
		if idx, ok := index[key]; ok {
			d.terms[idx] = append(d.terms[idx], t)
			continue
		}
		index[key] = len(d.patterns)
		d.patterns = append(d.patterns, key)
		d.terms = append(d.terms, []Term{t})
	}

	if len(d.patterns) == 0 {
		return d, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(d.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	d.ac = automaton
	return d, nil
}

// MustCompile is Compile for package-level tables.
func MustCompile(terms []Term) *Dictionary {
	d, err := Compile(terms)
	if err != nil {
		panic("lexicon: " + err.Error())
	}
	return d
}

// Len returns the number of distinct surface forms.
func (d *Dictionary) Len() int { return len(d.patterns) }

// Scan returns whole-word matches in text, left to right. Where matches
// overlap the longest one wins, so "hopeless" never also reports "hope".
func (d *Dictionary) Scan(text string) []Match {
	if d == nil || d.ac == nil {
		return nil
	}

	canon := Canonicalize(text)
	hits := d.ac.FindAllOverlapping([]byte(canon))
	if len(hits) == 0 {
		return nil
	}

	type span struct{ start, end, pattern int }
	spans := make([]span, 0, len(hits))
	for _, h := range hits {
		if !wordBoundary(canon, h.Start, h.End) {
			continue
		}
		spans = append(spans, span{h.Start, h.End, h.PatternID})
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	mapping := offsetMap(text)
	out := make([]Match, 0, len(spans))
	lastEnd := -1
	for _, sp := range spans {
		if sp.start < lastEnd {
			continue
		}
		lastEnd = sp.end

		start, end := mapping[sp.start], mapping[len(mapping)-1]
		if sp.end < len(mapping) {
			end = mapping[sp.end]
		}
		matched := strings.TrimSpace(text[start:end])
		for _, t := range d.terms[sp.pattern] {
			out = append(out, Match{Term: t, Start: start, End: end, Text: matched})
		}
	}
	return out
}

// Contains reports whether any term occurs in text.
func (d *Dictionary) Contains(text string) bool {
	return len(d.Scan(text)) > 0
}

func wordBoundary(s string, start, end int) bool {
	if start > 0 && s[start-1] != ' ' {
		return false
	}
	if end < len(s) && s[end] != ' ' {
		return false
	}
	return true
}
