// Package output manages the on-disk layout of generated artifacts.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// SafeFolderName strips control characters, replaces filesystem-hostile
// runes with underscores, and caps the length so topic strings can be used
// as directory names.
func SafeFolderName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output dir is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output dir cannot contain path traversal")
		}
	}

	cleaned := filepath.Clean(dir)
	if cleaned != dir {
		return fmt.Errorf("output dir must be a clean path")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output dir does not exist")
		}
		return fmt.Errorf("invalid output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output dir is not a directory")
	}

	return nil
}

// Layout locates the artifacts of a single run inside the output directory.
type Layout struct {
	Base string
}

// RunDir creates and returns the working directory for a run, named after
// its sanitized topic and run ID.
func (l Layout) RunDir(topic, runID string) (string, error) {
	name := SafeFolderName(topic, 60)
	if name == "" {
		name = "untitled"
	}
	dir := filepath.Join(l.Base, name+"_"+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// VideoPath is the final render target inside a run directory.
func (l Layout) VideoPath(runDir string) string {
	return filepath.Join(runDir, "video.mp4")
}
