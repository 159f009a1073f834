package review

import "strings"

// FileChange describes one file's changes within a unified diff, grounded
// on the teacher's former diffparse.FileChange shape but reduced to the
// fields this package's batching and categorization actually need.
type FileChange struct {
	OldName   string
	NewName   string
	IsNew     bool
	IsDeleted bool
	IsRenamed bool
	IsBinary  bool
	Additions int
	Deletions int
	Patch     string
}

// EnrichedFileChange adds a rough token-cost estimate to a FileChange, used
// by BatchFiles to keep each AI review call within its token budget.
type EnrichedFileChange struct {
	FileChange
	TokenEstimate int
}

// ParseUnifiedDiff parses a `git diff`-style unified diff into one
// EnrichedFileChange per file. It recognizes the headers git emits
// ("diff --git", "new file mode", "deleted file mode", "rename from/to",
// "Binary files ... differ") and counts added/removed lines from hunk
// bodies. It is intentionally forgiving: unrecognized lines are treated as
// part of the current file's patch body rather than rejected.
func ParseUnifiedDiff(diff string) []EnrichedFileChange {
	if strings.TrimSpace(diff) == "" {
		return nil
	}

	var files []EnrichedFileChange
	var cur *EnrichedFileChange
	var patch strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		cur.Patch = patch.String()
		cur.TokenEstimate = estimateTokens(cur.Patch)
		files = append(files, *cur)
		cur = nil
		patch.Reset()
	}

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			old, new := parseDiffGitLine(line)
			cur = &EnrichedFileChange{FileChange: FileChange{OldName: old, NewName: new}}
		case cur == nil:
			continue
		case strings.HasPrefix(line, "new file mode"):
			cur.IsNew = true
		case strings.HasPrefix(line, "deleted file mode"):
			cur.IsDeleted = true
		case strings.HasPrefix(line, "rename from "):
			cur.IsRenamed = true
			cur.OldName = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			cur.IsRenamed = true
			cur.NewName = strings.TrimPrefix(line, "rename to ")
		case strings.Contains(line, "Binary files") && strings.HasSuffix(line, "differ"):
			cur.IsBinary = true
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			cur.Additions++
			patch.WriteString(line)
			patch.WriteByte('\n')
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			cur.Deletions++
			patch.WriteString(line)
			patch.WriteByte('\n')
		default:
			patch.WriteString(line)
			patch.WriteByte('\n')
		}
	}
	flush()

	return files
}

// parseDiffGitLine extracts the a/ and b/ paths from a `diff --git a/x b/y`
// header line.
func parseDiffGitLine(line string) (oldName, newName string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return "", ""
	}
	oldName = strings.TrimPrefix(parts[0], "a/")
	newName = strings.TrimPrefix(parts[1], "b/")
	return oldName, newName
}

// estimateTokens gives a rough token count (~4 characters per token),
// matching the original source's `len(content)//4` heuristic.
func estimateTokens(s string) int {
	return len(s) / 4
}
