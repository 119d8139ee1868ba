package inbox

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"wordmill/internal/fileutil"
)

var termSplitRE = regexp.MustCompile(`[,\n;]+`)

// fallbackKeys are consulted, in order, when a line carries neither
// "entries" nor "word". Each holds one free-text capture.
var fallbackKeys = []string{"text", "entry", "term", "phrase"}

// ReadEntries parses the queue file into raw capture strings. A missing or
// empty file yields no entries. Lines that are not valid JSON objects are
// skipped. "entries" values are split on commas, semicolons, and newlines;
// "word" and free-text fallback values are taken whole. The open tolerates
// transient busy errors from cloud-synced filesystems.
func ReadEntries(path string) ([]string, error) {
	f, err := fileutil.OpenBusyRetry(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		out = append(out, entriesFrom(obj)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan queue: %w", err)
	}

	cleaned := make([]string, 0, len(out))
	for _, e := range out {
		if s := strings.TrimSpace(e); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned, nil
}

func entriesFrom(obj map[string]any) []string {
	if raw, ok := obj["entries"]; ok {
		switch v := raw.(type) {
		case string:
			return splitTerms(v)
		case []any:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, splitTerms(s)...)
				}
			}
			return out
		}
		return nil
	}
	if w, ok := obj["word"].(string); ok {
		return []string{w}
	}
	for _, key := range fallbackKeys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return []string{s}
		}
	}
	return nil
}

func splitTerms(s string) []string {
	var out []string
	for _, part := range termSplitRE.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
