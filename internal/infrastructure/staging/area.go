// Package staging keeps uploaded images on local disk before they are pushed
// to the blob store. Files live at {root}/{kind dir}/{entity name}/{file}.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// StagedFile describes a file written to the staging area
type StagedFile struct {
	// Path is the file location on the staging filesystem
	Path string
	// RelPath is the location relative to the staging root, always slash separated
	RelPath string
	// Filename is the generated file name
	Filename string
}

// Area is a local staging tree backed by an afero filesystem
type Area struct {
	fs     afero.Fs
	root   string
	now    func() time.Time
	logger *zap.Logger
}

// AreaOption is a functional option for Area configuration
type AreaOption func(*Area)

// WithClock overrides the clock used for filename timestamps
func WithClock(now func() time.Time) AreaOption {
	return func(a *Area) {
		a.now = now
	}
}

// WithLogger sets a custom logger for the area
func WithLogger(logger *zap.Logger) AreaOption {
	return func(a *Area) {
		a.logger = logger
	}
}

// NewArea creates a staging area rooted at root on fs
func NewArea(fs afero.Fs, root string, opts ...AreaOption) *Area {
	if root == "" {
		root = "image"
	}
	a := &Area{
		fs:     fs,
		root:   root,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewOSArea creates a staging area on the local disk
func NewOSArea(root string, opts ...AreaOption) *Area {
	return NewArea(afero.NewOsFs(), root, opts...)
}

// Root returns the staging root directory
func (a *Area) Root() string {
	return a.root
}

// RelDir returns the slash-separated directory of an entity relative to the root
func (a *Area) RelDir(kindDir, name string) string {
	return path.Join(kindDir, SanitizeName(name))
}

func (a *Area) dir(kindDir, name string) string {
	return filepath.Join(a.root, kindDir, SanitizeName(name))
}

// Stage writes r into the entity's directory under a generated filename.
// Parent directories are created as needed.
func (a *Area) Stage(kindDir, name, originalFilename string, r io.Reader) (StagedFile, error) {
	dir := a.dir(kindDir, name)
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return StagedFile{}, fmt.Errorf("failed to create staging directory: %w", err)
	}

	filename := Filename(originalFilename, a.now())
	p := filepath.Join(dir, filename)
	if err := afero.WriteReader(a.fs, p, r); err != nil {
		return StagedFile{}, fmt.Errorf("failed to write staged file: %w", err)
	}

	a.logger.Debug("Staged upload",
		zap.String("path", p),
		zap.String("original", originalFilename),
	)

	return StagedFile{
		Path:     p,
		RelPath:  path.Join(a.RelDir(kindDir, name), filename),
		Filename: filename,
	}, nil
}

// ReadFile returns the bytes of a staged file
func (a *Area) ReadFile(f StagedFile) ([]byte, error) {
	data, err := afero.ReadFile(a.fs, f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file: %w", err)
	}
	return data, nil
}

// Remove deletes one file of an entity. A missing file is not an error.
func (a *Area) Remove(kindDir, name, filename string) error {
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		return nil
	}
	err := a.fs.Remove(filepath.Join(a.dir(kindDir, name), filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove staged file: %w", err)
	}
	return nil
}

// Sweep removes every file in the entity's directory except keep and returns
// the removed names. A missing directory yields nothing to remove.
func (a *Area) Sweep(kindDir, name, keep string) ([]string, error) {
	dir := a.dir(kindDir, name)
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list staging directory: %w", err)
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == keep {
			continue
		}
		if err := a.fs.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, entry.Name())
	}
	return removed, errors.Join(errs...)
}

// RemoveAll deletes the entity's directory recursively. A missing directory is not an error.
func (a *Area) RemoveAll(kindDir, name string) error {
	if err := a.fs.RemoveAll(a.dir(kindDir, name)); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return nil
}

// Exists reports whether a file or directory exists relative to the root
func (a *Area) Exists(relPath string) bool {
	ok, err := afero.Exists(a.fs, filepath.Join(a.root, filepath.FromSlash(relPath)))
	return err == nil && ok
}
