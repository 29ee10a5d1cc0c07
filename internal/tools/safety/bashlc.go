package safety

import (
	"strings"

	"github.com/google/shlex"
)

// StripBashLC extracts the inner script from a `bash -lc "<script>"`
// invocation so safety checking operates on what will actually run, not
// on the bash/-lc wrapper tokens. Commands not in that shape are returned
// unchanged. If shlex reports extra tokens past the script position —
// meaning the script itself contained quoting shlex split on — the
// relaxed scanner below recovers the intended single script argument.
func StripBashLC(command string) string {
	argv, err := shlex.Split(command)
	if err != nil {
		if relaxed := stripBashLCRelaxed(command); relaxed != "" {
			return relaxed
		}
		return command
	}
	if len(argv) >= 3 && argv[0] == "bash" && argv[1] == "-lc" {
		if len(argv) > 3 {
			if relaxed := stripBashLCRelaxed(command); relaxed != "" {
				return relaxed
			}
		}
		return argv[2]
	}
	if relaxed := stripBashLCRelaxed(command); relaxed != "" {
		return relaxed
	}
	return command
}

// stripBashLCRelaxed handles `bash -lc <script>` commands shlex can't
// tokenize cleanly (unbalanced quotes inside the script), by locating the
// "-lc" (or "-c") flag as a standalone word and taking everything after
// it as the script, stripping one layer of matching quotes if present.
func stripBashLCRelaxed(command string) string {
	flag := "-lc"
	idx := findUnquotedWord(command, flag)
	if idx < 0 {
		flag = "-c"
		idx = findUnquotedWord(command, flag)
	}
	if idx < 0 {
		return ""
	}
	head := strings.TrimSpace(command[:idx])
	if head != "bash" && head != "/bin/bash" && head != "sh" {
		return ""
	}
	tail := strings.TrimSpace(command[idx+len(flag):])
	if tail == "" {
		return ""
	}
	if tail[0] == '\'' || tail[0] == '"' {
		quote := tail[0]
		if end := strings.IndexByte(tail[1:], quote); end >= 0 {
			return tail[1 : end+1]
		}
		return tail[1:]
	}
	return tail
}

// findUnquotedWord returns the index of word in s as a standalone,
// whitespace-delimited token outside any quoted region, or -1.
func findUnquotedWord(s, word string) int {
	inSingle, inDouble, escaped := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && !inSingle:
			escaped = true
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case !inSingle && !inDouble && strings.HasPrefix(s[i:], word):
			beforeOK := i == 0 || s[i-1] == ' ' || s[i-1] == '\t'
			after := i + len(word)
			afterOK := after >= len(s) || s[after] == ' ' || s[after] == '\t'
			if beforeOK && afterOK {
				return i
			}
		}
	}
	return -1
}
