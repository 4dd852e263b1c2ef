package helper

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RacerCode returns a three letter code for a racer name: "Mario" -> "MAR",
// "Boba Fett" -> "BFE".
func RacerCode(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	first := []rune(words[0])
	code := first[:1]
	switch {
	case len(words) > 1:
		second := []rune(words[1])
		code = append(code, second[:min(2, len(second))]...)
	default:
		code = first[:min(3, len(first))]
	}
	return strings.ToUpper(string(code))
}

// ParseID parses a positive identifier taken from a path or a flag.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid id %q", s)
	}
	if id <= 0 {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseChatIDs parses telegram chat ids. Empty entries are skipped.
func ParseChatIDs(ids []string) ([]int64, error) {
	ret := make([]int64, 0, len(ids))
	for _, s := range ids {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid chat id %q", s)
		}
		ret = append(ret, id)
	}
	return ret, nil
}
