package entity

import "github.com/pmezard/go-difflib/difflib"

// Suggest returns up to `n` candidates close to `name`, best first.
func Suggest(name string, candidates []string, n int) []string {
	if n <= 0 || name == "" {
		return nil
	}
	return difflib.GetCloseMatches(name, candidates, n, 0.6)
}
