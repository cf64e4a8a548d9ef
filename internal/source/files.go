package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Files serves images from an explicit, ordered list of paths. Directory
// arguments expand to their image files in sorted name order.
type Files struct {
	paths []string
}

func OpenFiles(inputs []string) (*Files, error) {
	var paths []string
	for _, input := range inputs {
		fi, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if fi.IsDir() {
			entries, err := os.ReadDir(input)
			if err != nil {
				return nil, err
			}
			var sub []string
			for _, entry := range entries {
				if !entry.IsDir() && imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
					sub = append(sub, filepath.Join(input, entry.Name()))
				}
			}
			sort.Strings(sub)
			paths = append(paths, sub...)
			continue
		}

		if !imageExts[strings.ToLower(filepath.Ext(input))] {
			return nil, fmt.Errorf("unsupported file type: %s", input)
		}
		paths = append(paths, input)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found in %v", inputs)
	}

	return &Files{paths: paths}, nil
}

// Paths returns the expanded, ordered input paths. The frame store hashes
// them to key its resume directory.
func (s *Files) Paths() []string { return s.paths }

func (s *Files) Count() int { return len(s.paths) }

func (s *Files) Name(i int) string { return s.paths[i] }

func (s *Files) Image(i int) (image.Image, error) {
	f, err := os.Open(s.paths[i])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Files) Close() error { return nil }
