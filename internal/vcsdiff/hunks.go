package vcsdiff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
)

var (
	fileHeaderRe = regexp.MustCompile(`^\+\+\+ b/(.+)$`)
	hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)
)

// ParseChangedLines parses a -U0 unified diff into one ChangedFile per
// "+++ b/<path>" section. A hunk header "@@ -old[,oldCount] +new[,newCount]
// @@" contributes newCount line numbers starting at new (or just new when
// newCount is 0, the pure-deletion case — the post-image anchor line).
func ParseChangedLines(diff string) []*model.ChangedFile {
	var files []*model.ChangedFile
	var current *model.ChangedFile

	for _, line := range strings.Split(diff, "\n") {
		if m := fileHeaderRe.FindStringSubmatch(line); m != nil {
			current = model.NewChangedFile(m[1], baseName(m[1]), nil)
			files = append(files, current)
			continue
		}
		if current == nil {
			continue
		}
		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			start, _ := strconv.Atoi(m[1])
			count := 1
			if m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			if count == 0 {
				current.AddLine(start)
				continue
			}
			for l := start; l < start+count; l++ {
				current.AddLine(l)
			}
		}
	}

	return files
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		return path[idx+1:]
	}
	return path
}
