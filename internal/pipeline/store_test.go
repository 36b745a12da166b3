package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docmodel/internal/doctree"
)

func storedDoc(id, hash string) *Document {
	return NewDocument(id, id+".txt", hash, doctree.NewTree("document", nil))
}

func TestDocumentStore_PutGetDelete(t *testing.T) {
	store := NewDocumentStore(time.Hour, 10)
	store.Put(storedDoc("a", "h1"))

	if store.Get("a") == nil {
		t.Fatal("expected to get document back")
	}
	if got := store.FindByHash("h1"); got == nil || got.ID != "a" {
		t.Errorf("expected hash lookup to find a, got %v", got)
	}
	if !store.Delete("a") {
		t.Error("expected delete to report an existing document")
	}
	if store.Delete("a") {
		t.Error("expected second delete to report nothing removed")
	}
	if store.FindByHash("h1") != nil {
		t.Error("expected hash index entry to be removed")
	}
}

func TestDocumentStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store := NewDocumentStore(time.Hour, 2)
	store.Put(storedDoc("a", "h1"))
	time.Sleep(time.Millisecond)
	store.Put(storedDoc("b", "h2"))
	time.Sleep(time.Millisecond)
	store.Get("a")
	time.Sleep(time.Millisecond)

	if evicted := store.Put(storedDoc("c", "h3")); evicted != "b" {
		t.Errorf("expected b to be evicted, got %q", evicted)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 documents, got %d", store.Len())
	}
	if store.Get("b") != nil {
		t.Error("expected b to be gone")
	}
}

func TestDocumentStore_ReplaceDoesNotEvict(t *testing.T) {
	store := NewDocumentStore(time.Hour, 1)
	store.Put(storedDoc("a", "h1"))
	if evicted := store.Put(storedDoc("a", "h1")); evicted != "" {
		t.Errorf("expected no eviction, got %q", evicted)
	}
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore(time.Hour, 0)
	for _, id := range []string{"first", "second", "third"} {
		store.Put(storedDoc(id, id))
		time.Sleep(time.Millisecond)
	}
	docs := store.List()
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if docs[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, docs[i].ID)
		}
	}
}

func TestDocumentStore_TTLCleanup(t *testing.T) {
	store := NewDocumentStore(50*time.Millisecond, 0)
	store.Put(storedDoc("old", "h1"))

	time.Sleep(100 * time.Millisecond)
	store.Put(storedDoc("new", "h2"))

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 expired document, got %d", n)
	}
	if store.Get("old") != nil {
		t.Error("expected expired document to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh document to survive cleanup")
	}
}
