// Package media classifies files by extension into the kinds snapsort
// organizes. Matching is case-insensitive on the final extension.
package media

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/jamesainslie/snapsort/pkg/snapsort/types"
)

// KindExtensions maps each media kind to its lowercase extensions.
var KindExtensions = map[types.MediaKind][]string{
	types.KindImage: {".jpg", ".jpeg", ".png"},
	types.KindVideo: {".mp4"},
}

// extToKind is the reverse index of KindExtensions, built at init.
var extToKind map[string]types.MediaKind

func init() {
	extToKind = make(map[string]types.MediaKind)
	for kind, exts := range KindExtensions {
		for _, ext := range exts {
			extToKind[ext] = kind
		}
	}
}

// Classify returns the kind of path based on its extension.
func Classify(path string) types.MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return types.KindUnknown
	}
	return extToKind[ext]
}

// IsCandidate reports whether path has a supported media extension.
func IsCandidate(path string) bool {
	return Classify(path) != types.KindUnknown
}

// Extensions returns every supported extension, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extToKind))
	for ext := range extToKind {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
