package inbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wordmill/internal/fileutil"
)

const archiveSuffix = ".done"

// Merge consolidates fragment files in dir into the target queue file.
// Fragments are files matching quick*.json or quick*.jsonl, excluding the
// target itself and anything already archived. Lines are merged first-seen
// unique, in fragment filename order, and each consumed fragment is renamed
// with a timestamped archive suffix. Returns the number of fragments merged.
func Merge(dir, target string, now time.Time) (int, error) {
	fragments, err := listFragments(dir, target)
	if err != nil {
		return 0, err
	}
	if len(fragments) == 0 {
		return 0, nil
	}

	lines, seen, err := readUniqueLines(target)
	if err != nil {
		return 0, err
	}
	for _, frag := range fragments {
		data, err := os.ReadFile(frag)
		if err != nil {
			return 0, fmt.Errorf("read fragment %s: %w", filepath.Base(frag), err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			s := strings.TrimSpace(line)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			lines = append(lines, s)
		}
	}

	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := fileutil.WriteFileAtomic(target, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("write queue %s: %w", filepath.Base(target), err)
	}

	stamp := now.Format("20060102-150405")
	for _, frag := range fragments {
		archived := frag + "." + stamp + archiveSuffix
		if err := os.Rename(frag, archived); err != nil {
			return 0, fmt.Errorf("archive fragment %s: %w", filepath.Base(frag), err)
		}
	}
	return len(fragments), nil
}

func listFragments(dir, target string) ([]string, error) {
	var matches []string
	for _, pattern := range []string{"quick*.json", "quick*.jsonl"} {
		found, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list fragments: %w", err)
		}
		matches = append(matches, found...)
	}

	targetBase := filepath.Base(target)
	seen := make(map[string]struct{})
	var fragments []string
	for _, m := range matches {
		name := filepath.Base(m)
		if name == targetBase || strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		if info, err := os.Stat(m); err != nil || !info.Mode().IsRegular() {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fragments = append(fragments, m)
	}
	sort.Slice(fragments, func(i, j int) bool {
		return filepath.Base(fragments[i]) < filepath.Base(fragments[j])
	})
	return fragments, nil
}

func readUniqueLines(path string) ([]string, map[string]struct{}, error) {
	seen := make(map[string]struct{})
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, seen, nil
		}
		return nil, nil, fmt.Errorf("read queue %s: %w", filepath.Base(path), err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		lines = append(lines, s)
	}
	return lines, seen, nil
}
