package storage

import (
	"fmt"
	"path"
	"strings"
)

// Blob keys follow the {token}_{base}.{ext} convention the rest of the system
// relies on: every derived object of one image shares the image token as its
// key prefix.

// SanitizeFilename strips any path components and reduces the name to a safe
// character set for use inside object keys.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "image"
	}
	return out
}

// SplitFilename separates a filename into its base and lowercased extension
// (without the dot). A name with no dot has an empty extension.
func SplitFilename(name string) (base, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], strings.ToLower(name[idx+1:])
}

func ImageKey(token, filename string) string {
	base, ext := SplitFilename(filename)
	return fmt.Sprintf("%s_%s.%s", token, base, ext)
}

func ThumbnailKey(token, filename string) string {
	base, ext := SplitFilename(filename)
	return fmt.Sprintf("%s_%s_thumbnail.%s", token, base, ext)
}

func XLSXKey(token, filename string) string {
	base, _ := SplitFilename(filename)
	return fmt.Sprintf("%s_%s.xlsx", token, base)
}

func CSVKey(token, filename string) string {
	base, _ := SplitFilename(filename)
	return fmt.Sprintf("%s_%s.csv", token, base)
}

// DerivedKeys lists the four blob keys owned by an image.
func DerivedKeys(token, filename string) []string {
	return []string{
		ImageKey(token, filename),
		ThumbnailKey(token, filename),
		XLSXKey(token, filename),
		CSVKey(token, filename),
	}
}
