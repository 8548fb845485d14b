package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/lstvlab/dicomsync/internal/dicom"
	"github.com/lstvlab/dicomsync/internal/models"
)

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) put(name string, data []byte) {
	s.objects[name] = data
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]ObjectRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	refs := make([]ObjectRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, ObjectRef{Name: name, Size: int64(len(s.objects[name]))})
	}
	return refs, nil
}

func (s *fakeStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	return ok, nil
}

func (s *fakeStore) Upload(_ context.Context, name string, r io.Reader, _ string) (bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; ok {
		return false, nil
	}
	s.objects[name] = data
	s.uploads++
	return true, nil
}

func (s *fakeStore) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return data, nil
}

// fakeCatalog is an in-memory Catalog that records every mutation.
type fakeCatalog struct {
	docs    map[string]*models.StudyDocument
	ops     []string
	failSet string // SetStudy on this key fails
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{docs: map[string]*models.StudyDocument{}}
}

func (c *fakeCatalog) ListStudies(_ context.Context) ([]CatalogDoc, error) {
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]CatalogDoc, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, CatalogDoc{DocID: id, Study: c.docs[id]})
	}
	return docs, nil
}

func (c *fakeCatalog) SetStudy(_ context.Context, key string, doc *models.StudyDocument) error {
	if key == c.failSet {
		return fmt.Errorf("catalog unavailable")
	}
	c.docs[key] = doc
	c.ops = append(c.ops, "set "+key)
	return nil
}

func (c *fakeCatalog) DeleteStudy(_ context.Context, key string) error {
	delete(c.docs, key)
	c.ops = append(c.ops, "delete "+key)
	return nil
}

// fakeExtractor maps file contents to canned headers. Unknown contents fail
// to parse, exercising the fallback path.
type fakeExtractor struct {
	headers map[string]dicom.Header
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{headers: map[string]dicom.Header{}}
}

func (e *fakeExtractor) Extract(data []byte) (dicom.Header, error) {
	if h, ok := e.headers[string(data)]; ok {
		return h, nil
	}
	return dicom.Header{}, fmt.Errorf("unparseable header")
}
