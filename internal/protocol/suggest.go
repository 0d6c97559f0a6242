package protocol

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to input by edit distance, or ""
// when nothing is within half the candidate's length.
func Suggest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, c)
		if d > (len(c)+1)/2 {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// UnknownName builds the InvalidArgument error for a closed-set name.
func UnknownName(kind, input string, candidates []string) *Error {
	if s := Suggest(input, candidates); s != "" {
		return Errorf(ErrInvalidArgument, "unknown %s %q (did you mean %q?)", kind, input, s)
	}
	return Errorf(ErrInvalidArgument, "unknown %s %q (want one of %s)", kind, input, strings.Join(candidates, ", "))
}
