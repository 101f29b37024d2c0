package folderkit

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveName returns a name that exists reports as free.
//
// When desired is taken, candidates "<base> 2.<ext>", "<base> 3.<ext>", ...
// are tried in order. The result is only collision-free at the instant of
// the check: a concurrent writer in the same directory can still take it.
func ResolveName(desired string, exists func(name string) bool) string {
	base, ext := splitName(desired)
	return resolveName(base, ext, base, 2, exists)
}

func resolveName(base, ext, candidate string, count int, exists func(string) bool) string {
	name := joinName(candidate, ext)
	if !exists(name) {
		return name
	}
	return resolveName(base, ext, fmt.Sprintf("%s %d", base, count), count+1, exists)
}

// splitName splits off the text after the last dot. Dotfiles such as
// ".env" and names ending in a dot have no extension.
func splitName(name string) (base, ext string) {
	dot := filepath.Ext(name)
	if dot == "" || dot == "." || dot == name {
		return name, ""
	}
	return strings.TrimSuffix(name, dot), dot[1:]
}

func joinName(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// validComponent rejects names that would address anything other than a
// direct child.
func validComponent(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	return nil
}

// cleanRelative normalizes a slash-delimited folder name relative to a
// standard root. Absolute names and ".." segments are rejected.
func cleanRelative(name string) (string, error) {
	name = filepath.ToSlash(name)
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidName, name)
	}
	parts := strings.Split(name, "/")
	kept := parts[:0]
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q leaves its root", ErrInvalidName, name)
		}
		if strings.ContainsRune(p, 0) || strings.ContainsRune(p, '\\') {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return strings.Join(kept, "/"), nil
}

// isPathUnderRoot checks if a path is under a given root directory
func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
