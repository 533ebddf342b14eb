package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Spool tails the *.jsonl files of a directory. Every complete line is
// decoded as an Event and submitted once; a partially written last line is
// picked up when its newline arrives.
type Spool struct {
	dir     string
	sub     Submitter
	logger  *slog.Logger
	offsets map[string]int64
}

// NewSpool creates a spool reader for dir.
func NewSpool(dir string, sub Submitter, logger *slog.Logger) *Spool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spool{dir: dir, sub: sub, logger: logger, offsets: make(map[string]int64)}
}

// Run reads the files already present, then follows the directory until
// ctx is cancelled.
func (s *Spool) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("spool: watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("spool: watch %s: %w", s.dir, err)
	}

	if err := s.scanAll(); err != nil {
		return err
	}
	s.logger.Info("spool: watching", "dir", s.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isSpoolFile(ev.Name) {
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					delete(s.offsets, ev.Name)
				}
				continue
			}
			s.scan(ev.Name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("spool: watcher error", "error", err)
		}
	}
}

// scanAll reads new lines from every spool file in the directory.
func (s *Spool) scanAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("spool: read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isSpoolFile(e.Name()) {
			continue
		}
		s.scan(filepath.Join(s.dir, e.Name()))
	}
	return nil
}

func (s *Spool) scan(path string) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("spool: open", "file", path, "error", err)
		return
	}
	defer f.Close()

	off := s.offsets[path]
	if info, err := f.Stat(); err == nil && info.Size() < off {
		// truncated
		off = 0
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		s.logger.Warn("spool: seek", "file", path, "error", err)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Warn("spool: read", "file", path, "error", err)
		return
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return
	}
	for _, line := range bytes.Split(data[:end], []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		ev, err := decodeEvent(line)
		if err != nil {
			s.logger.Warn("spool: bad event", "file", path, "error", err)
			continue
		}
		if err := s.sub.Submit(ev); err != nil {
			s.logger.Warn("spool: event rejected", "file", path, "kind", ev.Kind, "error", err)
		}
	}
	s.offsets[path] = off + int64(end) + 1
}

func isSpoolFile(name string) bool {
	return strings.HasSuffix(name, ".jsonl")
}
