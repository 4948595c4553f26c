// Package storage writes report files into an output directory.
//
// Every write goes to a temporary file next to the target and is renamed
// into place, so a crash never leaves a half-written digest behind. The
// Manager remembers which names it wrote during the process lifetime.
//
// Usage:
//
//	m, err := storage.NewManager("./digests")
//	path, err := m.Save(strings.NewReader(text), "timeline_digest_20250310.txt")
package storage
