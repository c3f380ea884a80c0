package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings cleans every string in `ss` and drops the empty ones.
func CleanStrings(ss []string) []string {
	res := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = CleanString(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}

// ContainsString reports whether `s` is in `ss`.
func ContainsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// AppendUnique appends the values of `vals` not yet in `ss`, keeping first-seen order.
func AppendUnique(ss []string, vals ...string) []string {
	for _, v := range vals {
		if v != "" && !ContainsString(ss, v) {
			ss = append(ss, v)
		}
	}
	return ss
}
