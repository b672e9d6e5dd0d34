package logroute

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/sysmond/internal/errors"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
	timeLayout      = "2006-01-02 15:04:05"
)

// Registry maps logical stream names (e.g. "cpu.log") to append-only
// destination files. A destination is created lazily on the first reference
// to an unseen stream name and lives for the rest of the process. At most
// one destination may exist per stream name: attaching a second handler to
// a claimed name is a configuration error, raised immediately.
type Registry struct {
	dir string

	mu      sync.Mutex
	streams map[string]*os.File
}

// NewRegistry creates a registry rooted at dir and eagerly attaches the
// given stream names.
func NewRegistry(dir string, streams ...string) (*Registry, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(errors.ErrLogRouteAccess, err)
	}

	r := &Registry{
		dir:     dir,
		streams: make(map[string]*os.File),
	}

	for _, name := range streams {
		if err := r.Attach(name); err != nil {
			r.Close()
			return nil, err
		}
	}

	return r, nil
}

// Attach claims a stream name and opens its destination. It fails with
// duplicate_log_route if the name already has a handler.
func (r *Registry) Attach(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.attachLocked(name, true)

	return err
}

func (r *Registry) attachLocked(name string, strict bool) (*os.File, error) {
	errFactory := errors.New()

	name = normalize(name)
	if f, ok := r.streams[name]; ok {
		if strict {
			return nil, errFactory.WithData(errors.ErrDuplicateLogRoute, name)
		}
		return f, nil
	}

	f, err := os.OpenFile(filepath.Join(r.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrLogRouteAccess, err)
	}
	r.streams[name] = f

	return f, nil
}

// Append writes one line to the named stream, creating the destination if
// the name has not been seen before. Lines have the form
// "<timestamp> - <stream> - <level> - <message>".
func (r *Registry) Append(name, level, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	stream := normalize(name)
	f, err := r.attachLocked(stream, false)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("%s - %s - %s - %s\n", time.Now().Format(timeLayout), stream, level, message)
	if _, err := f.WriteString(line); err != nil {
		return errFactory.Wrap(errors.ErrLogRouteAccess, err)
	}

	return nil
}

// Close closes every destination. The registry must not be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, f := range r.streams {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = errors.New().Wrap(errors.ErrLogRouteAccess, err)
		}
		delete(r.streams, name)
	}

	return firstErr
}

// normalize strips any path prefix so callers may pass either a bare stream
// name or a path-like reference to it.
func normalize(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}

	return name
}
