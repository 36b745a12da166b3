package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docmodel/internal/bridge"
	"github.com/dgallion1/docmodel/internal/chunker"
	"github.com/dgallion1/docmodel/internal/doctree"
)

// ErrInvalidStep indicates a transaction step that cannot be compiled.
var ErrInvalidStep = errors.New("invalid transaction step")

// Document is an imported tree held in memory for reading and editing. A
// document is owned by one caller at a time: every access goes through its
// mutex, since even reads rebuild the tree's child index caches.
type Document struct {
	mu sync.Mutex

	ID          string
	Filename    string
	ContentHash string
	CreatedAt   time.Time

	version   int
	updatedAt time.Time
	tree      *doctree.Tree
	bridge    *bridge.Bridge

	// Guarded by the owning DocumentStore.
	lastAccess time.Time
}

// DocumentInfo is a JSON-safe summary of a document.
type DocumentInfo struct {
	ID        string    `json:"doc_id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	Version   int       `json:"version"`
	Nodes     int       `json:"nodes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument wraps a parsed tree and binds bridge identities to its nodes.
func NewDocument(id, filename, hash string, tree *doctree.Tree) *Document {
	now := time.Now()
	return &Document{
		ID:          id,
		Filename:    filename,
		ContentHash: hash,
		CreatedAt:   now,
		updatedAt:   now,
		lastAccess:  now,
		tree:        tree,
		bridge:      bridge.New(tree),
	}
}

// View runs fn with exclusive access to the tree and its bridge. fn must not
// keep either after returning.
func (d *Document) View(fn func(tree *doctree.Tree, b *bridge.Bridge) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.tree, d.bridge)
}

// Version returns the number of committed transactions.
func (d *Document) Version() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Info summarizes the document.
func (d *Document) Info() DocumentInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	title, _ := d.tree.Attribute(d.tree.Root(), "title")
	return DocumentInfo{
		ID:        d.ID,
		Title:     title,
		Filename:  d.Filename,
		Version:   d.version,
		Nodes:     d.bridge.Len(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.updatedAt,
	}
}

// Chunks splits the current tree into retrieval chunks.
func (d *Document) Chunks(cfg chunker.Config) []chunker.Chunk {
	d.mu.Lock()
	defer d.mu.Unlock()
	return chunker.ChunkTree(d.tree, cfg)
}

// Apply runs every step of tx in one Mutator. Steps address the document as
// it was before the transaction; each step's positions are carried through
// the edits of the steps before it. If any step fails the document is
// restored to its state before the transaction and the error is returned.
func (d *Document) Apply(tx Transaction, defaultBias doctree.Bias) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bias := defaultBias
	if tx.Bias != "" {
		b, err := doctree.ParseBias(tx.Bias)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		bias = b
	}

	var sel doctree.Range
	if tx.Selection != nil {
		r, err := tx.Selection.resolve(d.tree)
		if err != nil {
			return Result{}, fmt.Errorf("selection: %w", err)
		}
		sel = r
	}

	backup := d.tree.Clone()
	steps, err := d.compile(tx.Steps, bias)
	if err != nil {
		d.restore(backup)
		return Result{}, err
	}

	mapped, _, err := d.tree.Update(sel, bias, func(m *doctree.Mutator) error {
		for i, s := range steps {
			if err := s.run(m); err != nil {
				return &StepError{Index: i, Op: s.op, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		d.restore(backup)
		return Result{}, err
	}

	d.version++
	d.updatedAt = time.Now()
	added, removed := d.bridge.Sync()

	res := Result{
		Version:      d.version,
		Steps:        len(tx.Steps),
		NodesAdded:   added,
		NodesRemoved: removed,
	}
	if !mapped.IsZero() {
		res.Selection = &RangePaths{Start: mapped.Start().Path(), End: mapped.End().Path()}
	}
	return res, nil
}

func (d *Document) restore(backup *doctree.Tree) {
	d.tree = backup
	d.bridge.Rebind(backup)
}
