package source

import (
	"errors"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// ErrFileRemoved is returned by FileTail.Read once the watched file has
// been removed or renamed away.
var ErrFileRemoved = errors.New("source: tailed file was removed")

// FileTail is a Source that follows a growing file, the way `tail -f`
// does: Read blocks until more bytes have been appended, the file is
// removed, or Close is called. It supplements the bounded in-memory and
// io.Reader sources with an unbounded-growth one, for log-ingestion
// style use of the streaming tokenizer.
type FileTail struct {
	file    *os.File
	watcher *fsnotify.Watcher
	closed  chan struct{}
}

// NewFileTail opens path and begins watching it for appends.
func NewFileTail(path string) (*FileTail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		f.Close()
		return nil, err
	}
	return &FileTail{file: f, watcher: w, closed: make(chan struct{})}, nil
}

// Read copies up to len(dst) newly available bytes into dst. It
// returns (0, nil) only after Close has been called; otherwise it
// blocks waiting for a write/remove event on the file once it is
// caught up with the file's current length.
func (t *FileTail) Read(dst []byte) (int, error) {
	for {
		n, err := t.file.Read(dst)
		if err != nil && err != io.EOF {
			return n, err
		}
		if n > 0 {
			return n, nil
		}

		select {
		case <-t.closed:
			return 0, nil
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return 0, nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return 0, ErrFileRemoved
			}
			// Write/Create/Chmod: loop and re-read from current offset.
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return 0, nil
			}
			return 0, err
		}
	}
}

// Close stops watching and releases the underlying file handle. A
// blocked Read returns (0, nil) once Close completes.
func (t *FileTail) Close() error {
	close(t.closed)
	werr := t.watcher.Close()
	ferr := t.file.Close()
	if werr != nil {
		return werr
	}
	return ferr
}
