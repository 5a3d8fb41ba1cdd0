package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	sessionFilePrefix = "session_"
	sessionFileSuffix = ".json"
)

type sessionDocument struct {
	Session   Session    `json:"session"`
	Responses []Response `json:"responses"`
}

// File stores each session with its responses in dir/session_<id>.json.
type File struct {
	mu  sync.Mutex
	dir string
}

func NewFile(dir string) (*File, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) SaveSession(_ context.Context, s *Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(s.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if doc == nil {
		doc = &sessionDocument{Responses: []Response{}}
	}
	doc.Session = *cloneSession(s)
	return f.write(doc)
}

func (f *File) GetSession(_ context.Context, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(id)
	if err != nil {
		return nil, err
	}
	return &doc.Session, nil
}

func (f *File) ListSessions(context.Context) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading storage directory %s: %w", f.dir, err)
	}

	sessions := make([]Session, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, sessionFileSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, sessionFilePrefix), sessionFileSuffix)
		doc, err := f.read(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, doc.Session)
	}

	sortNewestFirst(sessions)
	return sessions, nil
}

func (f *File) AddResponse(_ context.Context, r *Response) error {
	if err := validateResponse(r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(r.SessionID)
	if err != nil {
		return err
	}
	doc.Responses = append(doc.Responses, *r)
	return f.write(doc)
}

func (f *File) ListResponses(_ context.Context, sessionID string) ([]Response, error) {
	if err := validateID(sessionID); err != nil {
		return nil, ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(sessionID)
	if err != nil {
		return nil, err
	}
	return append([]Response{}, doc.Responses...), nil
}

func (f *File) Close() error { return nil }

func (f *File) path(id string) string {
	return filepath.Join(f.dir, sessionFilePrefix+id+sessionFileSuffix)
}

func (f *File) read(id string) (*sessionDocument, error) {
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	var doc sessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", id, err)
	}
	return &doc, nil
}

// write replaces the document atomically through a temporary file.
func (f *File) write(doc *sessionDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", doc.Session.ID, err)
	}

	tmp, err := os.CreateTemp(f.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session %s: %w", doc.Session.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session %s: %w", doc.Session.ID, err)
	}
	return os.Rename(tmp.Name(), f.path(doc.Session.ID))
}
