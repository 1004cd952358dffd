package shell

import (
	"strings"

	shlex "github.com/anmitsu/go-shlex"
)

// completeLine returns the n-th full-line completion for line, wrapping
// around the candidate set. The command word completes against history,
// directory entries, and $PATH; later words complete against the directory
// listing only.
func (s *Session) completeLine(line string, n int) (string, bool) {
	// An unterminated quote means the word boundaries are ambiguous; don't
	// guess.
	if _, err := shlex.Split(line, true); err != nil {
		return "", false
	}

	space := strings.LastIndex(line, " ")
	if space < 0 {
		cand, ok := s.cache.Cycle(line, s.commands, n)
		if !ok {
			return "", false
		}
		return cand, true
	}

	head, word := line[:space+1], line[space+1:]
	matches := prefixMatches(s.cache.Listing(), word)
	if len(matches) == 0 {
		return "", false
	}
	return head + matches[n%len(matches)], true
}

func prefixMatches(names []string, prefix string) []string {
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
