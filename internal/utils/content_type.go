package utils

import (
	"mime"
	"path"
	"strings"
)

const DefaultContentType = "application/octet-stream"

// types the platform mime table is often missing or gets wrong
var extraTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".yaml": "text/yaml; charset=utf-8",
	".yml":  "text/yaml; charset=utf-8",
	".toml": "text/plain; charset=utf-8",
	".dwg":  "image/vnd.dwg",
	".dxf":  "image/vnd.dxf",
	".step": "application/step",
	".stp":  "application/step",
}

// DetectContentType derives the content type from the extension of key.
func DetectContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return DefaultContentType
	}
	if ct, ok := extraTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}
