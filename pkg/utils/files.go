package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputBase strips the extension from path, leaving the base that
// output files are named after: prog.asm -> prog.
func OutputBase(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// WithExt returns path with its extension replaced by ext.
func WithExt(path, ext string) string {
	return OutputBase(path) + ext
}
