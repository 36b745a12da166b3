package chunker

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// Chunk is a text segment of a document. Range covers the blocks the chunk
// was cut from; overlap text carried over from the previous chunk is not
// part of it.
type Chunk struct {
	Text       string        `json:"text"`
	Index      int           `json:"index"`
	Breadcrumb []string      `json:"breadcrumb,omitempty"`
	PageStart  int           `json:"page_start,omitempty"`
	PageEnd    int           `json:"page_end,omitempty"`
	Start      []int         `json:"start"`
	End        []int         `json:"end"`
	Range      doctree.Range `json:"-"`
}

type block struct {
	id   doctree.NodeID
	text string
	page int
}

type heading struct {
	level int
	title string
}

type chunking struct {
	tree     *doctree.Tree
	cfg      Config
	headings []heading
	pending  []block
	chunks   []Chunk
}

// ChunkTree walks a document tree and produces structure-aware chunks.
// Headings open sections and feed the breadcrumb; the blocks of each section
// are packed into chunks of about cfg.ChunkSize tokens.
func ChunkTree(tree *doctree.Tree, cfg Config) []Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 100
	}

	c := &chunking{tree: tree, cfg: cfg}
	opts := doctree.WalkOptions{Filter: c.classify, Shallow: true}
	for n := range tree.Walk(tree.Root(), opts) {
		text := strings.TrimSpace(tree.TextContent(n))
		if level := headingLevel(tree.Tag(n)); level > 0 {
			c.flush()
			c.enter(level, text)
			continue
		}
		if text == "" {
			continue
		}
		c.pending = append(c.pending, block{id: n, text: text, page: c.page(n)})
	}
	c.flush()
	return c.chunks
}

// classify accepts the outermost containers that hold text directly.
func (c *chunking) classify(n doctree.NodeID) doctree.FilterResult {
	if c.tree.IsLeaf(n) {
		return doctree.Reject
	}
	for _, child := range c.tree.Children(n) {
		if c.tree.IsLeaf(child) {
			return doctree.Accept
		}
	}
	return doctree.Skip
}

func (c *chunking) enter(level int, title string) {
	for len(c.headings) > 0 && c.headings[len(c.headings)-1].level >= level {
		c.headings = c.headings[:len(c.headings)-1]
	}
	if title != "" {
		c.headings = append(c.headings, heading{level: level, title: title})
	}
}

func (c *chunking) breadcrumb() []string {
	if len(c.headings) == 0 {
		return nil
	}
	out := make([]string, len(c.headings))
	for i, h := range c.headings {
		out[i] = h.title
	}
	return out
}

// page returns the number of the enclosing page container, or 0.
func (c *chunking) page(n doctree.NodeID) int {
	for p := c.tree.Parent(n); p != doctree.None; p = c.tree.Parent(p) {
		if c.tree.Tag(p) != "page" {
			continue
		}
		v, _ := c.tree.Attribute(p, "number")
		num, _ := strconv.Atoi(v)
		return num
	}
	return 0
}

// flush chunks the blocks of the current section.
func (c *chunking) flush() {
	blocks := c.pending
	c.pending = nil
	if len(blocks) == 0 {
		return
	}

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.text
	}
	if EstimateTokens(strings.Join(texts, "\n\n")) <= c.cfg.ChunkSize {
		c.emit(strings.Join(texts, "\n\n"), blocks[0], blocks[len(blocks)-1])
		return
	}

	var current []block
	var buf strings.Builder
	currentTokens := 0
	emitCurrent := func() {
		if len(current) == 0 {
			return
		}
		c.emit(buf.String(), current[0], current[len(current)-1])
	}

	for _, b := range blocks {
		tokens := EstimateTokens(b.text)

		// A block larger than the target is split by sentences.
		if tokens > c.cfg.ChunkSize {
			emitCurrent()
			current, currentTokens = nil, 0
			buf.Reset()
			for _, part := range splitBySentences(b.text, c.cfg.ChunkSize, c.cfg.ChunkOverlap) {
				c.emit(part, b, b)
			}
			continue
		}

		if currentTokens+tokens > c.cfg.ChunkSize && len(current) > 0 {
			emitCurrent()
			overlap := getOverlapText(buf.String(), c.cfg.ChunkOverlap)
			current, currentTokens = nil, 0
			buf.Reset()
			if overlap != "" {
				buf.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(b.text)
		current = append(current, b)
		currentTokens += tokens
	}
	emitCurrent()
}

func (c *chunking) emit(text string, first, last block) {
	if EstimateTokens(text) < c.cfg.MinChunk {
		return
	}
	chunk := Chunk{
		Text:       text,
		Index:      len(c.chunks),
		Breadcrumb: c.breadcrumb(),
		PageStart:  first.page,
		PageEnd:    last.page,
	}
	start, err1 := c.tree.Before(first.id)
	end, err2 := c.tree.After(last.id)
	if err1 == nil && err2 == nil {
		if r, err := doctree.NewRange(start, end); err == nil {
			chunk.Range = r
			chunk.Start = start.Path()
			chunk.End = end.Path()
		}
	}
	c.chunks = append(c.chunks, chunk)
}

func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' || tag[1] < '1' || tag[1] > '6' {
		return 0
	}
	return int(tag[1] - '0')
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	// Approximate: 1.33 tokens per word.
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
