package safety

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// SplitSequence splits a shell script into its per-command argv lists at
// unquoted control operators (";", "|", "||", "&&"). A bare "&"
// (background) is not a separator — it is left as a literal token of the
// command it trails, matching the original pipeline's behavior of only
// treating doubled operators and "|"/";" as command boundaries.
func SplitSequence(script string) ([][]string, error) {
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("empty script")
	}

	var commands [][]string
	var cur strings.Builder

	flush := func() error {
		text := strings.TrimSpace(cur.String())
		cur.Reset()
		if text == "" {
			return fmt.Errorf("empty command in sequence")
		}
		argv, err := shlex.Split(text)
		if err != nil {
			return fmt.Errorf("shell parsing error: %w", err)
		}
		commands = append(commands, argv)
		return nil
	}

	inSingle, inDouble, escaped := false, false, false
	i := 0
	for i < len(script) {
		c := script[i]
		switch {
		case escaped:
			escaped = false
			cur.WriteByte(c)
			i++
			continue
		case c == '\\' && !inSingle:
			escaped = true
			cur.WriteByte(c)
			i++
			continue
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteByte(c)
			i++
			continue
		case c == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteByte(c)
			i++
			continue
		}

		if !inSingle && !inDouble {
			switch {
			case c == ';':
				if err := flush(); err != nil {
					return nil, err
				}
				i++
				continue
			case c == '|':
				if err := flush(); err != nil {
					return nil, err
				}
				if i+1 < len(script) && script[i+1] == '|' {
					i += 2
				} else {
					i++
				}
				continue
			case c == '&' && i+1 < len(script) && script[i+1] == '&':
				if err := flush(); err != nil {
					return nil, err
				}
				i += 2
				continue
			}
		}

		cur.WriteByte(c)
		i++
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return commands, nil
}
