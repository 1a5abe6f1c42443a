package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mindshard/workspace/pkg/files"
)

var (
	// ErrNotOpen is returned when the path is not an open document.
	ErrNotOpen = errors.New("document not open")
	// ErrDestinationRequired is returned when saving a new document
	// without a destination path.
	ErrDestinationRequired = errors.New("destination path required")
	// ErrSaveCancelled is returned when an empty destination aborts a
	// save-as; no state changes.
	ErrSaveCancelled = errors.New("save cancelled")
	// ErrPathInUse is returned when a save-as destination collides with
	// another open document.
	ErrPathInUse = errors.New("destination path already open")
)

// Confirmer is the pluggable capability consulted before closing a dirty
// document. The core never hardcodes a blocking dialog.
type Confirmer interface {
	// ConfirmSave reports whether the dirty document should be saved
	// before closing. Declining means discard.
	ConfirmSave(path string) bool
	// PickDestination supplies a destination for a document that has
	// never been saved. Empty means cancel.
	PickDestination(suggested string) string
}

// Session is the set of open documents. Documents are ordered, unique by
// path, with at most one focused.
type Session struct {
	mu           sync.Mutex
	store        files.Store
	confirmer    Confirmer
	docs         []*Document
	byPath       map[string]*Document
	activePath   string
	nextUntitled int
}

// NewSession creates an empty editing session backed by the given file
// store.
func NewSession(store files.Store, confirmer Confirmer) *Session {
	return &Session{
		store:        store,
		confirmer:    confirmer,
		byPath:       make(map[string]*Document),
		nextUntitled: 1,
	}
}

// Open fetches and opens the document at path, or focuses it if it is
// already open. Opening an already-open path never resets its content or
// dirty state.
func (s *Session) Open(ctx context.Context, path string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.byPath[path]; ok {
		s.activePath = path
		return *doc, nil
	}

	fc, err := s.store.Get(ctx, path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}

	doc := &Document{Path: path, ViewMode: ViewEditor}
	if IsMediaPath(path) {
		raw, err := files.DecodeMedia(fc.Content)
		if err != nil {
			return Document{}, fmt.Errorf("open %s: %w", path, err)
		}
		doc.Media = true
		doc.ViewMode = ViewPreview
		doc.MediaContent = raw
	} else {
		doc.Content = fc.Content
	}
	doc.setSnapshot(doc.Content)

	s.add(doc)
	s.activePath = path
	return *doc, nil
}

// NewDocument opens an empty untitled document and focuses it. Placeholder
// numbers are monotonic for the session lifetime and never reused, even
// after close.
func (s *Session) NewDocument() Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := fmt.Sprintf("Untitled-%d", s.nextUntitled)
	s.nextUntitled++

	doc := &Document{
		Path:     path,
		Dirty:    true,
		New:      true,
		ViewMode: ViewEditor,
	}
	s.add(doc)
	s.activePath = path
	return *doc
}

// Edit replaces the content of an open document. Unchanged content is a
// no-op; otherwise the document becomes dirty unless the new content
// matches the last persisted snapshot.
func (s *Session) Edit(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return ErrNotOpen
	}
	if doc.Content == content {
		return nil
	}

	doc.Content = content
	doc.Dirty = doc.New || contentSum(content) != doc.snapshotSum
	return nil
}

// Save persists an open document to its own path. A clean, non-new
// document is a no-op and never reaches the file store; a new document
// needs SaveAs.
func (s *Session) Save(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return ErrNotOpen
	}
	if doc.New {
		return ErrDestinationRequired
	}
	if !doc.Dirty {
		return nil
	}
	return s.persist(ctx, doc, doc.Path)
}

// SaveAs persists an open document to the supplied destination, re-keying
// the session if the path changes. An empty destination aborts with no
// state change.
func (s *Session) SaveAs(ctx context.Context, path, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return ErrNotOpen
	}
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return ErrSaveCancelled
	}
	if dest != path {
		if _, taken := s.byPath[dest]; taken {
			return ErrPathInUse
		}
	}
	return s.persist(ctx, doc, dest)
}

// SaveAll saves every open, dirty, non-new document. Unsaved new documents
// are skipped: there is no destination to infer for them.
func (s *Session) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, doc := range s.docs {
		if doc.New || !doc.Dirty {
			continue
		}
		if err := s.persist(ctx, doc, doc.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close removes a document from the session. A dirty document gives the
// confirmer a chance to save first, but is removed regardless of the
// outcome; declining discards the changes. Closing the focused document
// refocuses an adjacent one.
func (s *Session) Close(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return ErrNotOpen
	}

	if doc.Dirty && s.confirmer != nil && s.confirmer.ConfirmSave(path) {
		dest := doc.Path
		if doc.New {
			dest = strings.TrimSpace(s.confirmer.PickDestination(doc.Path))
		}
		if dest != "" {
			if err := s.persist(ctx, doc, dest); err != nil {
				slog.Error("save before close failed", "path", path, "error", err)
			}
		}
	}

	s.remove(doc.Path)
	return nil
}

// ApplyExternalEdit overwrites the content of an open document on behalf of
// an agent tool call and marks it dirty, signalling that the buffer changed
// underneath the user. Returns false if the path is not open.
func (s *Session) ApplyExternalEdit(path, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return false
	}
	doc.Content = content
	doc.Dirty = true
	return true
}

// Focus makes the document at path the active one.
func (s *Session) Focus(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPath[path]; !ok {
		return ErrNotOpen
	}
	s.activePath = path
	return nil
}

// ActivePath returns the focused document's path, or empty when the
// session has no documents.
func (s *Session) ActivePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePath
}

// Get returns a copy of the document at path.
func (s *Session) Get(path string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// Documents returns copies of the open documents in tab order.
func (s *Session) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	return out
}

// OpenPaths returns the open document paths in tab order.
func (s *Session) OpenPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Path)
	}
	return out
}

// SetViewMode switches a document between editor and preview.
func (s *Session) SetViewMode(path string, mode ViewMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byPath[path]
	if !ok {
		return ErrNotOpen
	}
	doc.ViewMode = mode
	return nil
}

// persist writes doc's content to dest and applies the post-save state
// transition. In-memory state changes only after the store call succeeds.
// The session lock is held for the whole write, so a save in flight for a
// path always completes before the next one starts.
func (s *Session) persist(ctx context.Context, doc *Document, dest string) error {
	if err := s.store.Save(ctx, dest, doc.Content); err != nil {
		return fmt.Errorf("save %s: %w", dest, err)
	}

	if dest != doc.Path {
		delete(s.byPath, doc.Path)
		doc.Path = dest
		s.byPath[dest] = doc
		// Saving under a new name moves focus to the saved tab.
		s.activePath = dest
	}
	doc.New = false
	doc.Dirty = false
	doc.setSnapshot(doc.Content)
	return nil
}

func (s *Session) add(doc *Document) {
	s.docs = append(s.docs, doc)
	s.byPath[doc.Path] = doc
}

func (s *Session) remove(path string) {
	idx := -1
	for i, doc := range s.docs {
		if doc.Path == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.docs = append(s.docs[:idx], s.docs[idx+1:]...)
	delete(s.byPath, path)

	if s.activePath != path {
		return
	}
	switch {
	case len(s.docs) == 0:
		s.activePath = ""
	case idx < len(s.docs):
		s.activePath = s.docs[idx].Path
	default:
		s.activePath = s.docs[len(s.docs)-1].Path
	}
}
