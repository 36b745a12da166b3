package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docmodel/internal/bridge"
	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/dgallion1/docmodel/internal/pipeline"
	"github.com/dgallion1/docmodel/internal/writer"
	"github.com/go-chi/chi/v5"
)

const maxTransactionBytes = 4 << 20

// handleListDocuments lists every document held in memory.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.orchestrator.Documents().List()
	infos := make([]pipeline.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, d.Info())
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": infos})
}

// handleGetDocument exports a document in the requested format. With
// node_ids=true the HTML export carries the bridge identity of every node.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	wr, err := writer.ForFormat(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	withIDs := r.URL.Query().Get("node_ids") == "true"

	var buf bytes.Buffer
	err = doc.View(func(tree *doctree.Tree, b *bridge.Bridge) error {
		if h, ok := wr.(writer.HTML); ok && withIDs {
			h.NodeID = b.HTMLID
			wr = h
		}
		return wr.Write(&buf, tree)
	})
	if err != nil {
		s.log.Error("export failed", "doc_id", doc.ID, "format", format, "error", err)
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", writer.ContentType(format))
	if format == "docx" {
		name := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename)) + writer.Extension(format)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	w.Write(buf.Bytes())
}

// handleDeleteDocument drops a document from the store.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.orchestrator.Documents().Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}

// handleTransaction applies a batch of edit steps atomically.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	var tx pipeline.Transaction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTransactionBytes)).Decode(&tx); err != nil {
		jsonError(w, "invalid transaction: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := doc.Apply(tx, s.bias)
	if err != nil {
		s.log.Warn("transaction rejected", "doc_id", doc.ID, "steps", len(tx.Steps), "error", err)
		s.editError(w, err)
		return
	}
	s.log.Info("transaction applied", "doc_id", doc.ID, "version", res.Version, "steps", len(tx.Steps))
	writeJSON(w, http.StatusOK, res)
}

type selectionRequest struct {
	Anchor bridge.Point `json:"anchor"`
	Focus  bridge.Point `json:"focus"`
}

type selectionResponse struct {
	Start    []int  `json:"start"`
	End      []int  `json:"end"`
	Backward bool   `json:"backward"`
	Text     string `json:"text"`
}

// handleSelection resolves a host selection given as node identities into
// document paths.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid selection: "+err.Error(), http.StatusBadRequest)
		return
	}

	var resp selectionResponse
	err := doc.View(func(_ *doctree.Tree, b *bridge.Bridge) error {
		sel, err := b.Selection(req.Anchor, req.Focus)
		if err != nil {
			return err
		}
		text, err := sel.Range.Text()
		if err != nil {
			return err
		}
		resp = selectionResponse{
			Start:    sel.Range.Start().Path(),
			End:      sel.Range.End().Path(),
			Backward: sel.Backward,
			Text:     text,
		}
		return nil
	})
	if err != nil {
		s.editError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChunks splits the current version of a document into chunks.
func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	chunks := doc.Chunks(s.orchestrator.ChunkConfig())
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  doc.ID,
		"version": doc.Version(),
		"chunks":  chunks,
	})
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) *pipeline.Document {
	docID := chi.URLParam(r, "docID")
	doc := s.orchestrator.Documents().Get(docID)
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
	}
	return doc
}

// editError maps model error kinds to HTTP statuses.
func (s *Server) editError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		body["step"] = stepErr.Index
		body["op"] = stepErr.Op
	}
	code := editStatus(err)
	if code >= 500 {
		body["aborted"] = true
	}
	writeJSON(w, code, body)
}

func editStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, doctree.ErrMutatorActive):
		return http.StatusConflict
	case errors.Is(err, doctree.ErrInvalidPosition),
		errors.Is(err, doctree.ErrMisbehavedRange),
		errors.Is(err, doctree.ErrNoParent),
		errors.Is(err, doctree.ErrLeafChildren),
		errors.Is(err, doctree.ErrForeignNode),
		errors.Is(err, doctree.ErrAttached):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
