package config

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/logging"
)

var log = logging.GetLogger("config")

// Load reads and parses the setup document at path. A missing or unreadable
// document is the only failure mode; malformed content never fails.
func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigNotFound,
			"cannot read config document %s", path)
	}
	defer func() { _ = file.Close() }()

	store, err := Parse(file)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigNotFound,
			"cannot read config document %s", path)
	}

	log.Debug().Str("path", path).Int("keys", store.Len()).Msg("Config document loaded")
	return store, nil
}

// Parse reads a setup document and returns the populated Store.
//
// The grammar is deliberately small and lenient:
//   - blank lines and lines starting with '#' are skipped
//   - a line of exact form [name] opens a section (no nesting)
//   - key = value stores under "section.key", or the bare key outside
//     any section; later definitions overwrite earlier ones
//   - one layer of surrounding single or double quotes is stripped from
//     the value; a value wrapped in [ ... ] is a comma-separated list
//   - anything else is silently ignored, never an error
func Parse(r io.Reader) (*Store, error) {
	store := NewStore()
	section := ""

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Section headers carry no '=', which keeps them distinct from
		// key = [a, b] list lines.
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") &&
			!strings.Contains(line, "=") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name != "" {
				section = name
			}
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			log.Trace().Str("line", line).Msg("Ignoring malformed line")
			continue
		}

		key := strings.TrimSpace(line[:eq])
		if key == "" {
			log.Trace().Str("line", line).Msg("Ignoring line with empty key")
			continue
		}

		if section != "" {
			key = section + "." + key
		}
		store.Set(key, parseValue(strings.TrimSpace(line[eq+1:])))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return store, nil
}

// parseValue turns the raw right-hand side of an assignment into a Value.
// Quote stripping happens before list detection, so both
//
//	key = [a, b]
//	key = "[a, b]"
//
// yield the same list.
func parseValue(raw string) Value {
	s := stripQuotes(raw)

	if len(s) >= 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var items []string
		for _, part := range strings.Split(s[1:len(s)-1], ",") {
			part = strings.Map(dropQuoteChars, part)
			part = strings.Join(strings.Fields(part), " ")
			if part == "" {
				continue
			}
			items = append(items, part)
		}
		return List(items...)
	}

	return Scalar(s)
}

// stripQuotes removes one layer of matching surrounding quotes, if present
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func dropQuoteChars(r rune) rune {
	if r == '"' || r == '\'' {
		return -1
	}
	return r
}
