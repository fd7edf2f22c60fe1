package textstats

import (
	"math"
	"strings"
	"unicode"
)

// CountType is the unit a Stats count is expressed in.
type CountType string

// LanguageGroup is the dominant script family of a text.
type LanguageGroup string

const (
	Words      CountType = "words"
	Characters CountType = "characters"

	Latin LanguageGroup = "Latin"
	CJK   LanguageGroup = "CJK"
)

// CJKThreshold is the share of CJK characters above which a text is measured
// in characters instead of words.
const CJKThreshold = 0.10

// cjkTable covers CJK Unified Ideographs (and extension A), Hiragana,
// Katakana, Hangul syllables and Jamo, and halfwidth/fullwidth forms.
var cjkTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x1100, Hi: 0x11FF, Stride: 1},
		{Lo: 0x3040, Hi: 0x309F, Stride: 1},
		{Lo: 0x30A0, Hi: 0x30FF, Stride: 1},
		{Lo: 0x3400, Hi: 0x4DBF, Stride: 1},
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1},
		{Lo: 0xAC00, Hi: 0xD7AF, Stride: 1},
		{Lo: 0xFF00, Hi: 0xFFEF, Stride: 1},
	},
}

// Stats is the length metric of a text.
// CJKRatio is set only when LanguageGroup is CJK.
type Stats struct {
	CountType     CountType     `json:"type"`
	Count         int           `json:"count"`
	LanguageGroup LanguageGroup `json:"language_group"`
	CJKRatio      *float64      `json:"cjk_ratio,omitempty"`
}

// Empty is the result for text without any visible characters.
func Empty() Stats {
	return Stats{CountType: Words, Count: 0, LanguageGroup: Latin}
}

// IsCJK reports whether r belongs to one of the CJK ranges.
func IsCJK(r rune) bool {
	return unicode.Is(cjkTable, r)
}

// Classify measures text as a word count for Latin-script text or as a
// character count when more than CJKThreshold of its non-whitespace
// characters are CJK.
func Classify(text string) Stats {
	total := 0
	cjk := 0

	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}

		total++
		if IsCJK(r) {
			cjk++
		}
	}

	if total == 0 {
		return Empty()
	}

	ratio := float64(cjk) / float64(total)
	if ratio > CJKThreshold {
		rounded := roundRatio(ratio)

		return Stats{
			CountType:     Characters,
			Count:         total,
			LanguageGroup: CJK,
			CJKRatio:      &rounded,
		}
	}

	return Stats{
		CountType:     Words,
		Count:         len(strings.Fields(text)),
		LanguageGroup: Latin,
	}
}

func roundRatio(ratio float64) float64 {
	return math.Round(ratio*100) / 100
}
