// Package attachment moves record images through the local staging area into
// the remote blob store, and cleans them up again when they are replaced or
// their record is deleted.
package attachment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/silo-ledger/backend/internal/domain/shared"
	"github.com/silo-ledger/backend/internal/infrastructure/staging"
	"go.uber.org/zap"
)

// Upload is an image received with a request
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Stager is the local staging area the workflow writes uploads to
type Stager interface {
	Stage(kindDir, name, originalFilename string, r io.Reader) (staging.StagedFile, error)
	ReadFile(f staging.StagedFile) ([]byte, error)
	Remove(kindDir, name, filename string) error
	Sweep(kindDir, name, keep string) ([]string, error)
	RemoveAll(kindDir, name string) error
	RelDir(kindDir, name string) string
}

// RemoteStore is the blob store images are published to
type RemoteStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config is injected at construction; the workflow never reads the environment
type Config struct {
	// Credential gates every write to the remote store
	Credential string
	// KeyPrefix is prepended to the staging relative path to form the object key
	KeyPrefix string
}

// Workflow coordinates the staging area and the remote store
type Workflow struct {
	cfg    Config
	remote RemoteStore
	stager Stager
	logger *zap.Logger
}

// Option is a functional option for Workflow
type Option func(*Workflow)

// WithLogger sets a custom logger for the workflow
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// NewWorkflow creates a new Workflow. remote may be nil when no blob store is configured.
func NewWorkflow(cfg Config, remote RemoteStore, stager Stager, opts ...Option) *Workflow {
	w := &Workflow{
		cfg:    cfg,
		remote: remote,
		stager: stager,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Configured reports whether remote writes are possible
func (w *Workflow) Configured() bool {
	return w.cfg.Credential != "" && w.remote != nil
}

// Key returns the object key for a staging relative path
func (w *Workflow) Key(relPath string) string {
	if w.cfg.KeyPrefix == "" {
		return relPath
	}
	return path.Join(w.cfg.KeyPrefix, relPath)
}

// Prefix returns the object key prefix holding every image of an entity
func (w *Workflow) Prefix(kindDir, name string) string {
	return w.Key(w.stager.RelDir(kindDir, name)) + "/"
}

// Attach stages the upload and publishes it, returning the public URL in the report.
// The credential is checked before anything touches the disk.
func (w *Workflow) Attach(ctx context.Context, kindDir, name string, up Upload) (*Report, error) {
	report := &Report{}
	if !w.Configured() {
		report.fatal("check-credential", "", shared.ErrStorageNotConfigured)
		return report, shared.ErrStorageNotConfigured
	}
	if up.Open == nil {
		err := shared.NewDomainError(shared.CodeInvalidInput, "File tidak valid")
		report.fatal("open-upload", up.Filename, err)
		return report, err
	}

	rc, err := up.Open()
	if err != nil {
		derr := shared.WrapDomainError(shared.CodeStagingFailed, "Gagal membaca file", err)
		report.fatal("open-upload", up.Filename, derr)
		return report, derr
	}
	defer rc.Close()

	staged, err := w.stager.Stage(kindDir, name, up.Filename, rc)
	if err != nil {
		derr := shared.WrapDomainError(shared.CodeStagingFailed, "Gagal menyimpan file", err)
		report.fatal("stage", up.Filename, derr)
		return report, derr
	}
	report.ok("stage", staged.RelPath)
	report.Filename = staged.Filename

	data, err := w.stager.ReadFile(staged)
	if err != nil {
		derr := shared.WrapDomainError(shared.CodeStagingFailed, "Gagal membaca file", err)
		report.fatal("read-staged", staged.RelPath, derr)
		return report, derr
	}

	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key := w.Key(staged.RelPath)
	publicURL, err := w.remote.Put(ctx, key, data, contentType)
	if err != nil {
		derr := shared.WrapDomainError(shared.CodeUploadFailed, "Gagal mengunggah gambar", err)
		report.fatal("upload", key, derr)
		w.ignorable(report, kindDir, name, "remove-staged", staged.RelPath,
			w.stager.Remove(kindDir, name, staged.Filename))
		return report, derr
	}
	report.ok("upload", key)
	report.URL = publicURL

	w.logger.Debug("Image attached",
		zap.String("kind", kindDir),
		zap.String("name", name),
		zap.String("url", publicURL),
	)
	return report, nil
}

// Replace attaches the upload and then releases the previous image
func (w *Workflow) Replace(ctx context.Context, kindDir, name, previousURL string, up Upload) (*Report, error) {
	report, err := w.Attach(ctx, kindDir, name, up)
	if err != nil {
		return report, err
	}
	report.Merge(w.Release(ctx, kindDir, name, previousURL, report.Filename))
	return report, nil
}

// Release removes a superseded image remotely and locally, then sweeps the
// entity's staging directory of everything but keep. Any other directory the
// entity used before, named by formerNames or holding previousURL, is emptied
// entirely. Failures are ignored.
func (w *Workflow) Release(ctx context.Context, kindDir, name, previousURL, keep string, formerNames ...string) *Report {
	report := &Report{}
	if previousURL != "" {
		w.removeImage(ctx, report, kindDir, name, previousURL, keep)
	}

	current := w.stager.RelDir(kindDir, name)
	w.sweep(report, kindDir, name, keep)

	swept := map[string]bool{current: true}
	if owner := ownerFromURL(kindDir, previousURL); owner != "" {
		formerNames = append(formerNames, owner)
	}
	for _, former := range formerNames {
		dir := w.stager.RelDir(kindDir, former)
		if swept[dir] {
			continue
		}
		swept[dir] = true
		w.sweep(report, kindDir, former, "")
	}
	return report
}

func (w *Workflow) sweep(report *Report, kindDir, name, keep string) {
	removed, err := w.stager.Sweep(kindDir, name, keep)
	w.ignorable(report, kindDir, name, "local-sweep", w.stager.RelDir(kindDir, name), err)
	if len(removed) > 0 {
		w.logger.Debug("Swept stale staged files",
			zap.String("kind", kindDir),
			zap.String("name", name),
			zap.Strings("files", removed),
		)
	}
}

// Discard removes one image remotely and locally. Used when the record that
// should have referenced it could not be written.
func (w *Workflow) Discard(ctx context.Context, kindDir, name, imageURL string) *Report {
	report := &Report{}
	if imageURL != "" {
		w.removeImage(ctx, report, kindDir, name, imageURL, "")
	}
	return report
}

// Detach removes every image of an entity: the staging directory, every remote
// object under the entity's prefix, and any known URLs. A known URL stored
// under another directory, left there by a rename without a new upload, has
// that directory removed as well. Only a failure to remove the entity's own
// staging directory is returned.
func (w *Workflow) Detach(ctx context.Context, kindDir, name string, known ...string) (*Report, error) {
	report := &Report{}
	dir := w.stager.RelDir(kindDir, name)

	if err := w.stager.RemoveAll(kindDir, name); err != nil {
		report.fatal("local-remove-all", dir, err)
		return report, fmt.Errorf("failed to remove images of %s/%s: %w", kindDir, name, err)
	}
	report.ok("local-remove-all", dir)

	names := []string{name}
	dirs := map[string]bool{dir: true}
	for _, u := range known {
		owner := ownerFromURL(kindDir, u)
		if owner == "" {
			continue
		}
		ownerDir := w.stager.RelDir(kindDir, owner)
		if dirs[ownerDir] {
			continue
		}
		dirs[ownerDir] = true
		names = append(names, owner)
		w.ignorable(report, kindDir, owner, "local-remove-all", ownerDir, w.stager.RemoveAll(kindDir, owner))
	}

	if !w.Configured() {
		w.ignorable(report, kindDir, name, "remote-sweep", dir, shared.ErrStorageNotConfigured)
		return report, nil
	}

	var urls []string
	for _, n := range names {
		prefix := w.Prefix(kindDir, n)
		listed, err := w.remote.List(ctx, prefix)
		if err != nil {
			w.ignorable(report, kindDir, n, "remote-list", prefix, err)
			continue
		}
		report.ok("remote-list", prefix)
		urls = append(urls, listed...)
	}

	seen := make(map[string]bool, len(urls)+len(known))
	for _, u := range append(urls, known...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		w.ignorable(report, kindDir, name, "remote-delete", u, w.remote.Delete(ctx, u))
	}
	return report, nil
}

func (w *Workflow) removeImage(ctx context.Context, report *Report, kindDir, name, imageURL, keep string) {
	if w.Configured() {
		w.ignorable(report, kindDir, name, "remote-delete", imageURL, w.remote.Delete(ctx, imageURL))
	} else {
		w.ignorable(report, kindDir, name, "remote-delete", imageURL, shared.ErrStorageNotConfigured)
	}

	filename := filenameFromURL(imageURL)
	if filename == "" {
		return
	}
	owner := ownerFromURL(kindDir, imageURL)
	if owner == "" {
		owner = name
	}
	sameDir := w.stager.RelDir(kindDir, owner) == w.stager.RelDir(kindDir, name)
	if sameDir && filename == keep {
		return
	}
	w.ignorable(report, kindDir, owner, "local-remove", filename, w.stager.Remove(kindDir, owner, filename))
}

// ignorable records a best-effort step, logging it when it failed
func (w *Workflow) ignorable(report *Report, kindDir, name, step, target string, err error) {
	if err == nil {
		report.ok(step, target)
		return
	}
	report.ignore(step, target, err)
	w.logger.Warn("Image cleanup step failed",
		zap.String("step", step),
		zap.String("kind", kindDir),
		zap.String("name", name),
		zap.String("target", target),
		zap.Error(err),
	)
}

// filenameFromURL returns the unescaped last path segment of an image URL
func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// ownerFromURL returns the entity directory segment of an image URL laid out
// as .../{kindDir}/{entity}/{file}, or "" when the URL has another shape.
func ownerFromURL(kindDir, raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 || segments[len(segments)-3] != path.Base(kindDir) {
		return ""
	}
	owner := segments[len(segments)-2]
	if owner == "" || owner == "." || owner == ".." {
		return ""
	}
	return owner
}
