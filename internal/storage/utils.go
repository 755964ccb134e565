package storage

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFileName reduces a client supplied file name to a safe ASCII base name.
// Returns an empty string if nothing usable is left.
func SecureFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFileChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// UniqueFileName prefixes the sanitized name with a UUID so uploads never collide.
// The extension of the original name is kept even when the rest of it is unusable.
func UniqueFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := unsafeFileChars.ReplaceAllString(filepath.Ext(name), "")
	if ext == "." {
		ext = ""
	}
	base := SecureFileName(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "image"
	}
	return uuid.New().String() + "_" + base + ext
}

// ReplaceExtension swaps the extension of name for ext (which includes the leading dot)
func ReplaceExtension(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
