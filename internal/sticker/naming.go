package sticker

import (
	"path"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultName   = "sticker"
	maxNameLength = 100
)

// SanitizeName turns a logical name into a safe artifact base name. Directory
// components are dropped, accents are folded to their base letters and any
// character outside [A-Za-z0-9._-] becomes an underscore. Leading dots are
// removed so the result can never be "..", a hidden file or empty.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimRight(name, "/"))

	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err == nil {
		name = folded
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.TrimLeft(b.String(), "._")
	if len(out) > maxNameLength {
		out = out[:maxNameLength]
	}
	out = strings.TrimRight(out, "_")
	if out == "" {
		return defaultName
	}
	return out
}

// NameSet hands out artifact base names that are unique within the set.
// Names are compared case-insensitively so that they stay distinct on
// case-folding filesystems. It is safe for concurrent use.
type NameSet struct {
	mu   sync.Mutex
	used map[string]bool
}

// NewNameSet creates an empty NameSet.
func NewNameSet() *NameSet {
	return &NameSet{used: make(map[string]bool)}
}

// Reserve sanitizes name and returns it, or the first free variant with a
// "_2", "_3", ... suffix when another reservation already holds it. The
// result is a fixed point of SanitizeName.
func (s *NameSet) Reserve(name string) string {
	base := SanitizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := base
	for n := 2; s.used[strings.ToLower(candidate)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		candidate = base[:min(len(base), maxNameLength-len(suffix))] + suffix
	}
	s.used[strings.ToLower(candidate)] = true
	return candidate
}

// Release frees a name returned by Reserve.
func (s *NameSet) Release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.used, strings.ToLower(name))
}
