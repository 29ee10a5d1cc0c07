package reminders

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/agentcore/internal/markdown"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

type memoryPath struct {
	path        string
	instruction string
}

// memoryFileNames are the project-instruction filenames discovered both
// at the workspace root and near any path the last turn touched.
var memoryFileNames = []string{"CLAUDE.md", "AGENTS.md", "AGENT.md"}

func globalMemoryPaths() []memoryPath {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []memoryPath{
		{path: filepath.Join(home, ".agentcore", "AGENTS.md"), instruction: "user's private global instructions for all projects"},
	}
}

func rootMemoryPaths(workDir string) []memoryPath {
	var paths []memoryPath
	for _, name := range memoryFileNames {
		paths = append(paths, memoryPath{path: filepath.Join(workDir, name), instruction: "project instructions, checked into the codebase"})
	}
	return paths
}

type loadedMemory struct {
	path        string
	instruction string
	content     string
}

func readMemoryFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return markdown.Normalize(string(content)), true
}

func formatMemories(memories []loadedMemory) string {
	var parts []string
	for _, m := range memories {
		parts = append(parts, "Contents of "+m.path+" ("+m.instruction+"):\n\n"+m.content)
	}
	return strings.Join(parts, "\n\n")
}

// MemoryReminder loads each memory file (global, then project-root) that
// hasn't already been loaded into this session, once each.
func MemoryReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	candidates := append(globalMemoryPaths(), rootMemoryPaths(session.WorkDir)...)

	var loaded []loadedMemory
	var paths []string
	for _, c := range candidates {
		if session.LoadedMemory[c.path] {
			continue
		}
		content, ok := readMemoryFile(c.path)
		if !ok {
			continue
		}
		session.LoadedMemory[c.path] = true
		loaded = append(loaded, loadedMemory{path: c.path, instruction: c.instruction, content: content})
		paths = append(paths, c.path)
	}

	if len(loaded) == 0 {
		return nil, nil
	}

	body := `As you answer the user's questions, you can use the following context:

# projectMemory
Codebase and user instructions are shown below. Be sure to adhere to these instructions. IMPORTANT: These instructions OVERRIDE any default behavior and you MUST follow them exactly as written.
` + formatMemories(loaded) + `

#important-instruction-reminders
Do what has been asked; nothing more, nothing less.
NEVER create files unless they're absolutely necessary for achieving your goal.
ALWAYS prefer editing an existing file to creating a new one.
NEVER proactively create documentation files (*.md) or README files. Only create documentation files if explicitly requested by the User.

IMPORTANT: this context may or may not be relevant to your tasks. You should not respond to this context unless it is highly relevant to your task.`

	return &models.DeveloperMessage{
		Content:     "<system-reminder>" + body + "</system-reminder>",
		MemoryPaths: paths,
	}, nil
}

// LastPathMemoryReminder loads memory files discovered along the
// directory chain of any file the most recent turn's Read/Edit/MultiEdit/
// Write calls touched, from the workspace root down to the deepest
// directory — so a memory file scoped to a subpackage is picked up the
// first time the agent works inside it.
func LastPathMemoryReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	calls := getLastTurnToolCalls(session)
	if len(calls) == 0 {
		return nil, nil
	}

	pathSet := map[string]struct{}{}
	for _, call := range calls {
		switch call.Name {
		case tools.NameRead, tools.NameEdit, tools.NameMultiEdit, tools.NameWrite:
			var args struct {
				FilePath string `json:"file_path"`
			}
			if err := json.Unmarshal(call.ArgumentsRaw, &args); err != nil || args.FilePath == "" {
				continue
			}
			pathSet[args.FilePath] = struct{}{}
		}
	}
	if len(pathSet) == 0 {
		return nil, nil
	}

	cwd, err := filepath.Abs(session.WorkDir)
	if err != nil {
		return nil, nil
	}

	var loaded []loadedMemory
	var paths []string
	seen := map[string]struct{}{}

	for p := range pathSet {
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(cwd, full)
		}
		full = filepath.Clean(full)
		rel, err := filepath.Rel(cwd, full)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}

		deepest := full
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			deepest = filepath.Dir(full)
		}
		relDeepest, err := filepath.Rel(cwd, deepest)
		if err != nil {
			continue
		}

		current := cwd
		segments := strings.Split(relDeepest, string(filepath.Separator))
		if relDeepest == "." {
			segments = nil
		}
		for _, seg := range segments {
			current = filepath.Join(current, seg)
			for _, name := range memoryFileNames {
				memPath := filepath.Join(current, name)
				if _, ok := seen[memPath]; ok {
					continue
				}
				if session.LoadedMemory[memPath] {
					continue
				}
				content, ok := readMemoryFile(memPath)
				if !ok {
					continue
				}
				seen[memPath] = struct{}{}
				session.LoadedMemory[memPath] = true
				loaded = append(loaded, loadedMemory{path: memPath, instruction: "project instructions, discovered near last accessed path", content: content})
				paths = append(paths, memPath)
			}
		}
	}

	if len(loaded) == 0 {
		return nil, nil
	}

	return &models.DeveloperMessage{
		Content:     "<system-reminder>" + formatMemories(loaded) + "</system-reminder>",
		MemoryPaths: paths,
	}, nil
}
