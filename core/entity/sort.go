package entity

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort returns a sorted copy of `names`.
// Classes with two characters (e.g. "1A") come before the others, teachers use the slovenian collation.
func Sort(typ Type, names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)

	switch typ {
	case Class:
		sort.SliceStable(sorted, func(i, j int) bool {
			si, sj := isShortClass(sorted[i]), isShortClass(sorted[j])
			if si != sj {
				return si
			}
			return sorted[i] < sorted[j]
		})
	case Teacher:
		collate.New(language.Slovenian).SortStrings(sorted)
	default:
		sort.Strings(sorted)
	}
	return sorted
}

func isShortClass(name string) bool {
	return utf8.RuneCountInString(name) == 2
}
