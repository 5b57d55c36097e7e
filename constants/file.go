package constants

import "strings"

// AllowedExtensions holds the file extensions the pipeline picks up when
// scanning the input folder. Abstracts arrive as PDFs only.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
