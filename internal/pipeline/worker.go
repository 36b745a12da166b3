package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docmodel/internal/chunker"
	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/dgallion1/docmodel/internal/parser"
)

// Worker processes a single import job.
type Worker struct {
	docs       *DocumentStore
	log        *slog.Logger
	chunkCfg   chunker.Config
	parserOpts parser.Options
}

func NewWorker(docs *DocumentStore, log *slog.Logger, chunkCfg chunker.Config, opts parser.Options) *Worker {
	return &Worker{
		docs:       docs,
		log:        log,
		chunkCfg:   chunkCfg,
		parserOpts: opts,
	}
}

// Process parses the upload into a tree, checks it against already imported
// content and registers it as a document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		w.fail(log, job, "parsing", "unsupported format", err)
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		w.fail(log, job, "parsing", "parse failed", fmt.Errorf("parse: %w", err))
		return
	}
	if job.Title != "" {
		if err := setTitle(tree, job.Title); err != nil {
			w.fail(log, job, "parsing", "set title failed", err)
			return
		}
	}
	if ctx.Err() != nil {
		w.fail(log, job, "parsing", "cancelled", ctx.Err())
		return
	}

	// Phase 2: Dedup on the parsed text so the same content in another
	// container format is recognized.
	hash := ContentHashHex([]byte(tree.TextContent(tree.Root())))
	job.mu.Lock()
	job.ContentHash = hash
	job.mu.Unlock()
	if existing := w.docs.FindByHash(hash); existing != nil {
		log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
		job.SetDocID(existing.ID)
		job.SetStatus(StatusDuplicate, "dedup")
		return
	}

	// Phase 3: Index
	job.SetStatus(StatusIndexing, "indexing")
	nodes, leaves := countNodes(tree)
	job.SetCounts(nodes, leaves)
	chunks := chunker.ChunkTree(tree, w.chunkCfg)
	job.SetTotalChunks(len(chunks))
	log.Info("indexed document", "nodes", nodes, "leaves", leaves, "chunks", len(chunks))

	doc := NewDocument(job.DocID, job.Filename, hash, tree)
	if evicted := w.docs.Put(doc); evicted != "" {
		log.Warn("document store full, evicted least recently used", "evicted_doc_id", evicted)
	}
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase, msg string, err error) {
	log.Error(msg, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}

func setTitle(tree *doctree.Tree, title string) error {
	_, _, err := tree.Update(doctree.Range{}, doctree.Right, func(m *doctree.Mutator) error {
		return m.SetAttribute(tree.Root(), "title", title)
	})
	return err
}

// countNodes returns the number of attached nodes below the root and how many
// of them are leaves.
func countNodes(tree *doctree.Tree) (nodes, leaves int) {
	for n := range tree.Walk(tree.Root(), doctree.WalkOptions{}) {
		if n == tree.Root() {
			continue
		}
		nodes++
		if tree.IsLeaf(n) {
			leaves++
		}
	}
	return nodes, leaves
}
