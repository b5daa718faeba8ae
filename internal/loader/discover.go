package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

const vectorFilePattern = "**/*.json"

// Discover returns every .json file below root, recursively, sorted by path
// so point ids are reproducible between runs.
// A missing root yields no files.
func Discover(root string) ([]string, error) {
	return discoverFS(os.DirFS(root), root)
}

func discoverFS(fsys fs.FS, root string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, vectorFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	return files, nil
}
