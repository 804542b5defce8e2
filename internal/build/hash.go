package build

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceDigest hashes the Go sources a target is built from and returns a
// 12-character hex prefix. It is logged next to each build so stale binaries
// can be told apart in run logs.
func SourceDigest(t Target) (string, error) {
	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return "", err
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".go") {
			files = append(files, e.Name())
		}
	}
	if t.Source != "" && !strings.HasSuffix(t.Source, ".go") {
		files = append(files, t.Source)
	}
	sort.Strings(files)

	h := sha256.New()
	for _, name := range files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(t.Dir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			// Same framing as present files plus a sentinel so a missing
			// file never collides with an existing one.
			h.Write([]byte("\x00" + name + "\x00MISSING\x00"))
			continue
		}
		h.Write([]byte("\x00" + name + "\x00"))
		h.Write(content)
	}

	return hex.EncodeToString(h.Sum(nil))[:12], nil
}
