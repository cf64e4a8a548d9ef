package render

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/zoomcomposer/internal/codec"
)

// Store is the on-disk frame store. Frames live in a subdirectory keyed by a
// hash of the input set, so rerunning the same job against the same tmp dir
// finds its own frames and nothing else's.
type Store struct {
	root string
	dir  string
}

func NewStore(tmpDir string, inputs []string) (*Store, error) {
	sum := md5.Sum([]byte(strings.Join(inputs, "")))
	dir := filepath.Join(tmpDir, hex.EncodeToString(sum[:]))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating frame directory %s: %w", dir, err)
	}
	return &Store{root: tmpDir, dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Pattern is the printf-style sequence pattern the video encoder consumes.
func (s *Store) Pattern() string {
	return filepath.Join(s.dir, "%06d.png")
}

func (s *Store) FramePath(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%06d.png", i))
}

// PairPath names a blend-preview composite for the adjacent pair (i, i+1).
func (s *Store) PairPath(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("pair_%03d.png", i))
}

// Valid reports whether a frame file was completely written. Writes are
// temp-then-rename, so the final name existing (and non-empty) is the whole
// protocol: a crash mid-write leaves only a temp file behind.
func (s *Store) Valid(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

// Write encodes img to path atomically. The temp file is removed on any
// failure, so the store never contains a file Valid would misjudge.
func (s *Store) Write(path string, img image.Image, c codec.Codec) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := c.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return nil
}

// Remove deletes the frame directory, and the containing tmp dir too when
// this job was the only thing in it.
func (s *Store) Remove() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	os.Remove(s.root) // only succeeds when empty
	return nil
}
