package safety

// Check determines whether a Bash tool command is safe to execute. It
// unwraps a bash -lc wrapper first, then splits the script on unquoted
// control operators and applies the per-command rule set to every
// resulting command — a compound script is only safe if every command in
// it is. Returns (true, "") when safe, or (false, reason) for the first
// unsafe command found.
//
// Splitting every operator (rather than only checking the first word, as
// the original pipeline's disabled sequence-parsing path would have) is
// a deliberate strengthening: the safety gate is documented as operating
// per-command, and leaving anything after a ";" or "&&" unchecked would
// under-enforce the allowlist.
func Check(command, workDir string) (bool, string) {
	unwrapped := StripBashLC(command)

	commands, err := SplitSequence(unwrapped)
	if err != nil {
		return false, err.Error()
	}

	for _, argv := range commands {
		if len(argv) == 0 {
			return false, "empty command in sequence"
		}
		if ok, reason := checkArgv(argv, workDir); !ok {
			return false, reason
		}
	}
	return true, ""
}

// CheckArgv exposes the per-command rule set directly for callers that
// have already tokenized a single command (e.g. to re-check one segment
// of a script with a more specific error).
func CheckArgv(argv []string, workDir string) (bool, string) {
	if len(argv) == 0 {
		return false, "empty command"
	}
	return checkArgv(argv, workDir)
}
