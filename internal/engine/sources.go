package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	language "github.com/alexchamberlain/tartiflette/internal/language"
)

var sdlExtensions = map[string]bool{".graphql": true, ".graphqls": true, ".sdl": true}

// LoadSources reads SDL files. A directory contributes every .graphql,
// .graphqls and .sdl file below it, in lexical order.
func LoadSources(paths ...string) ([]*language.Source, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("schema path %q: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !sdlExtensions[filepath.Ext(d.Name())] {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk schema directory %q: %w", root, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no SDL files found in %v", paths)
	}

	sources := make([]*language.Source, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read SDL %q: %w", path, err)
		}
		sources = append(sources, &language.Source{Name: path, Input: string(content)})
	}
	return sources, nil
}
