package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// -----------------------------------------------------------------------------

// CompilePairPattern compiles pattern so that it must match a whole pair,
// alternations included.
func CompilePairPattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

// ExpandPairlist matches every pattern (a regular expression over the whole
// pair, or a plain pair) against the available pairs. Order follows the patterns and
// then the available list. Duplicates are dropped.
func ExpandPairlist(patterns []string, available []string) ([]string, error) {
	seen := make(map[string]struct{})
	var result []string

	for _, pattern := range patterns {
		re, err := CompilePairPattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("wildcard error in %s: %w", pattern, err)
		}
		for _, pair := range available {
			if !re.MatchString(pair) {
				continue
			}
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			result = append(result, pair)
		}
	}

	return result, nil
}

// -----------------------------------------------------------------------------

// SplitPair splits "BASE/QUOTE". ok is false unless there are exactly two
// non-empty tokens.
func SplitPair(pair string) (base, quote string, ok bool) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// PairToFilename maps "BTC/USDT" to "BTC_USDT" for on-disk names.
func PairToFilename(pair string) string {
	r := strings.NewReplacer("/", "_", " ", "_", ":", "_", ".", "_", "-", "_")
	return r.Replace(pair)
}
