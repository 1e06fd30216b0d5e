package discovery

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindPDFs walks root recursively and returns every regular file whose name
// ends in ".pdf" (case-insensitively), sorted lexicographically so runs are
// deterministic. An empty result is not an error.
func FindPDFs(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
