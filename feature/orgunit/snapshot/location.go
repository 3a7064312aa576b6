package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"orgunit-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
)

// ObjectScheme prefixes references to objects in the configured bucket.
const ObjectScheme = "s3://"

// Source is somewhere a snapshot can be read from.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// Destination is somewhere a snapshot can be written to.
type Destination interface {
	// Create opens the destination for writing. Content is replaced once the
	// writer is closed without error.
	Create(ctx context.Context) (io.WriteCloser, error)
	String() string
}

// Location is both readable and writable.
type Location interface {
	Source
	Destination
}

// FileLocation is a snapshot file on an afero filesystem.
type FileLocation struct {
	FS   afero.Fs
	Path string
}

// NewFileLocation creates a file location.
func NewFileLocation(fs afero.Fs, path string) *FileLocation {
	return &FileLocation{FS: fs, Path: path}
}

func (l *FileLocation) Open(_ context.Context) (io.ReadCloser, error) {
	return l.FS.Open(l.Path)
}

func (l *FileLocation) Create(_ context.Context) (io.WriteCloser, error) {
	return l.FS.Create(l.Path)
}

func (l *FileLocation) String() string {
	return l.Path
}

// ObjectLocation is a snapshot object in a storage bucket.
type ObjectLocation struct {
	Client storage.Client
	Bucket string
	Key    string
}

// NewObjectLocation creates an object location.
func NewObjectLocation(client storage.Client, bucket, key string) *ObjectLocation {
	return &ObjectLocation{Client: client, Bucket: bucket, Key: key}
}

func (l *ObjectLocation) Open(ctx context.Context) (io.ReadCloser, error) {
	// GetObject is lazy; stat first so a missing object fails here.
	if _, err := l.Client.StatObject(ctx, l.Bucket, l.Key, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("object %s/%s not found: %w", l.Bucket, l.Key, err)
	}
	obj, err := l.Client.GetObject(ctx, l.Bucket, l.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", l.Bucket, l.Key, err)
	}
	return obj, nil
}

func (l *ObjectLocation) Create(ctx context.Context) (io.WriteCloser, error) {
	return &objectWriter{ctx: ctx, loc: l}, nil
}

func (l *ObjectLocation) String() string {
	return ObjectScheme + l.Key
}

// objectWriter buffers the document and uploads it on Close.
type objectWriter struct {
	ctx    context.Context
	loc    *ObjectLocation
	buf    bytes.Buffer
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("write to closed object writer")
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := storage.EnsureBucket(w.ctx, w.loc.Client, w.loc.Bucket); err != nil {
		return err
	}
	_, err := w.loc.Client.PutObject(w.ctx, w.loc.Bucket, w.loc.Key, bytes.NewReader(w.buf.Bytes()), int64(w.buf.Len()),
		minio.PutObjectOptions{ContentType: "application/xml"})
	if err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", w.loc.Bucket, w.loc.Key, err)
	}
	return nil
}

// BytesSource is an in-memory snapshot, such as a request body.
type BytesSource struct {
	Name string
	Data []byte
}

func (s *BytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

func (s *BytesSource) String() string {
	return s.Name
}

// Resolve maps a reference to a location. "s3://key" addresses an object in
// bucket; anything else is a path on fs.
func Resolve(ref string, fs afero.Fs, client storage.Client, bucket string) (Location, error) {
	if ref == "" {
		return nil, errors.New("empty snapshot reference")
	}
	if !strings.HasPrefix(ref, ObjectScheme) {
		return NewFileLocation(fs, ref), nil
	}

	key := strings.TrimPrefix(ref, ObjectScheme)
	if key == "" {
		return nil, fmt.Errorf("snapshot reference %q has no object key", ref)
	}
	if client == nil {
		return nil, fmt.Errorf("snapshot reference %q needs object storage, which is not configured", ref)
	}
	return NewObjectLocation(client, bucket, key), nil
}

// Resolver resolves references against a fixed filesystem and bucket.
type Resolver struct {
	FS     afero.Fs
	Client storage.Client
	Bucket string
	// Confined rejects file references that are absolute or climb out of FS
	// with "..". Set it for references that come from API callers.
	Confined bool
}

// Resolve maps ref to a location.
func (r Resolver) Resolve(ref string) (Location, error) {
	if r.Confined && ref != "" && !strings.HasPrefix(ref, ObjectScheme) {
		if err := checkConfined(ref); err != nil {
			return nil, err
		}
	}
	return Resolve(ref, r.FS, r.Client, r.Bucket)
}

func checkConfined(ref string) error {
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, `\`) {
		return fmt.Errorf("snapshot reference %q must be relative to the snapshot directory", ref)
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(ref)))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("snapshot reference %q escapes the snapshot directory", ref)
	}
	return nil
}
