package models

import (
	"path/filepath"
	"runtime"
	"testing"
)

// GetFixturePath returns the absolute path of a file or directory under the
// repository's testdata directory.
func GetFixturePath(t testing.TB, fixturePath string) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to resolve fixture directory")
	}
	root := filepath.Join(filepath.Dir(filename), "..", "..", "testdata")
	return filepath.Join(root, fixturePath)
}
