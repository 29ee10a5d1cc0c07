// Package safety implements the Bash tool's command safety gates: per-
// command allow/deny rules for rm, trash, git, sed, awk, and find, plus
// the bash -lc unwrapping and control-operator sequence splitting needed
// to apply those rules to every command in a compound script.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// buildTools pass every subcommand through unchecked — their own
// toolchains gate what matters.
var buildTools = map[string]bool{
	"cargo": true, "uv": true, "go": true, "ruff": true, "pyright": true,
	"make": true, "isort": true, "npm": true, "pnpm": true, "bun": true,
}

// checkArgv applies the per-command rule set to one already-tokenized
// command. workDir anchors relative-path resolution for rm/trash.
func checkArgv(argv []string, workDir string) (bool, string) {
	if len(argv) == 0 {
		return false, "empty command"
	}

	switch argv[0] {
	case "rm":
		return checkRemoveArgv(argv, workDir, "rm", true)
	case "trash":
		return checkRemoveArgv(argv, workDir, "trash", false)
	case "find":
		return checkFindArgv(argv)
	case "git":
		return checkGitArgv(argv)
	case "sed":
		return checkSedArgv(argv)
	case "awk":
		return checkAwkArgv(argv)
	}

	if buildTools[argv[0]] {
		return true, ""
	}

	return true, ""
}

// checkRemoveArgv implements the rm/trash operand rules: no absolute
// paths, no tilde expansion, no glob wildcards, no trailing slash, and no
// escaping workDir once resolved. enforceSymlinkRule additionally rejects
// recursive deletion of symlinked operands (rm -r only; trash is less
// destructive and allows it).
func checkRemoveArgv(argv []string, workDir, name string, enforceSymlinkRule bool) (bool, string) {
	recursive := false
	endOfOpts := false
	var operands []string

	for _, arg := range argv[1:] {
		if !endOfOpts && arg == "--" {
			endOfOpts = true
			continue
		}
		if !endOfOpts && strings.HasPrefix(arg, "-") && arg != "-" {
			if strings.HasPrefix(arg, "--") {
				if arg == "--recursive" {
					recursive = true
				}
				continue
			}
			for _, ch := range arg[1:] {
				if ch == 'r' || ch == 'R' {
					recursive = true
				}
			}
			continue
		}
		operands = append(operands, arg)
	}

	for _, op := range operands {
		if filepath.IsAbs(op) {
			return false, fmt.Sprintf("%s: absolute path not allowed: %q", name, op)
		}
		if strings.HasPrefix(op, "~") || strings.Contains(op, "~/") {
			return false, fmt.Sprintf("%s: tilde expansion not allowed: %q", name, op)
		}
		if strings.ContainsAny(op, "*?[") {
			return false, fmt.Sprintf("%s: wildcards not allowed: %q", name, op)
		}
		if strings.HasSuffix(op, "/") {
			return false, fmt.Sprintf("%s: trailing slash not allowed: %q", name, op)
		}

		resolved := filepath.Clean(filepath.Join(workDir, op))
		rel, err := filepath.Rel(workDir, resolved)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			return false, fmt.Sprintf("%s: path escapes workspace: %q", name, op)
		}

		if enforceSymlinkRule && recursive {
			info, err := os.Lstat(resolved)
			if err != nil {
				return false, fmt.Sprintf("%s -r: target does not exist: %q", name, op)
			}
			if info.Mode()&os.ModeSymlink != 0 {
				return false, fmt.Sprintf("%s -r: cannot delete symlink recursively: %q", name, op)
			}
		}
	}

	return true, ""
}

var unsafeFindOpts = map[string]string{
	"-exec": "command execution", "-execdir": "command execution",
	"-ok": "interactive command execution", "-okdir": "interactive command execution",
	"-delete": "file deletion", "-fls": "file output",
	"-fprint": "file output", "-fprint0": "file output", "-fprintf": "formatted file output",
}

func checkFindArgv(argv []string) (bool, string) {
	for _, arg := range argv[1:] {
		if reason, ok := unsafeFindOpts[arg]; ok {
			return false, fmt.Sprintf("find: %s option %q not allowed", reason, arg)
		}
	}
	return true, ""
}

var allowedGitSubcommands = map[string]bool{
	"add": true, "branch": true, "checkout": true, "commit": true, "config": true,
	"diff": true, "fetch": true, "init": true, "log": true, "merge": true, "mv": true,
	"rebase": true, "reset": true, "restore": true, "revert": true, "rm": true,
	"show": true, "stash": true, "status": true, "switch": true, "tag": true,
	"clone": true, "worktree": true,
}

var blockedGitSubcommands = map[string]bool{"push": true, "pull": true, "remote": true}

func checkGitArgv(argv []string) (bool, string) {
	if len(argv) < 2 {
		return false, "git: missing subcommand"
	}
	sub := argv[1]
	if blockedGitSubcommands[sub] {
		return false, fmt.Sprintf("git: remote operation %q not allowed", sub)
	}
	if !allowedGitSubcommands[sub] {
		return false, fmt.Sprintf("git: subcommand %q not in allow list", sub)
	}
	return true, ""
}

var sedNArgPattern = regexp.MustCompile(`^\d+(,\d+)?p$`)

func checkSedArgv(argv []string) (bool, string) {
	if len(argv) >= 3 && argv[1] == "-n" && sedNArgPattern.MatchString(argv[2]) {
		return true, ""
	}
	if len(argv) >= 3 {
		for _, arg := range argv[1:] {
			if strings.HasPrefix(arg, "s/") || strings.HasPrefix(arg, "s|") {
				if strings.Contains(arg, ";") {
					return false, fmt.Sprintf("sed: command separator ';' not allowed in %q", arg)
				}
				if strings.Contains(arg, "`") {
					return false, fmt.Sprintf("sed: backticks not allowed in %q", arg)
				}
				if strings.Contains(arg, "$(") {
					return false, fmt.Sprintf("sed: command substitution not allowed in %q", arg)
				}
				return true, ""
			}
		}
	}
	return false, "sed: only text replacement (s/old/new/) or line printing (-n 'Np') is allowed"
}

var awkPrintPipePattern = regexp.MustCompile(`(?i)(?:^|[^|&>])\bprint\s*\|`)
var awkPrintfPipePattern = regexp.MustCompile(`(?i)\bprintf\s*\|`)

func checkAwkProgram(program string) (bool, string) {
	if strings.Contains(program, "`") {
		return false, "awk: backticks not allowed in program"
	}
	if strings.Contains(program, "$(") {
		return false, "awk: command substitution not allowed in program"
	}
	if strings.Contains(program, "|&") {
		return false, "awk: background pipeline not allowed in program"
	}
	if strings.Contains(strings.ToLower(program), "system(") {
		return false, "awk: system() call not allowed in program"
	}
	if awkPrintPipePattern.MatchString(program) || awkPrintfPipePattern.MatchString(program) {
		return false, "awk: piping output to external command not allowed"
	}
	return true, ""
}

func checkAwkArgv(argv []string) (bool, string) {
	if len(argv) < 2 {
		return false, "awk: missing program"
	}

	haveProgram := false

	i := 1
	for i < len(argv) {
		arg := argv[i]
		switch {
		case arg == "-f" || arg == "--file" || arg == "--source" || strings.HasPrefix(arg, "-f"):
			return false, "awk: -f/--file not allowed"
		case arg == "-e" || arg == "--exec":
			if i+1 >= len(argv) {
				return false, "awk: missing program for -e"
			}
			if ok, reason := checkAwkProgram(argv[i+1]); !ok {
				return false, reason
			}
			haveProgram = true
			i += 2
			continue
		case strings.HasPrefix(arg, "-"):
			i++
			continue
		default:
			if !haveProgram {
				if ok, reason := checkAwkProgram(arg); !ok {
					return false, reason
				}
				haveProgram = true
			}
			i++
		}
	}

	if !haveProgram {
		return false, "awk: missing program"
	}
	return true, ""
}
