// Command docmodel inspects, converts and edits documents from the command
// line.
//
//	docmodel dump FILE
//	docmodel convert [-to FORMAT] [-o OUT] FILE
//	docmodel chunks [-size N] [-overlap N] [-min N] FILE
//	docmodel edit -tx TX.json [-to FORMAT] [-o OUT] [-bias left|right] FILE
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docmodel/internal/bridge"
	"github.com/dgallion1/docmodel/internal/chunker"
	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/dgallion1/docmodel/internal/parser"
	"github.com/dgallion1/docmodel/internal/pipeline"
	"github.com/dgallion1/docmodel/internal/writer"
	"github.com/fatih/color"
)

const usage = `usage: docmodel <command> [flags] FILE

commands:
  dump     print the document tree
  convert  write the document in another format (%s)
  chunks   split the document into retrieval chunks
  edit     apply a JSON transaction and write the result
`

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			if err != errUsage {
				fmt.Fprintln(os.Stderr, err)
			}
			fmt.Fprintf(os.Stderr, usage, strings.Join(writer.Formats, ", "))
			os.Exit(2)
		}
		color.Red("docmodel: %s", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "dump":
		return runDump(args[1:], stdout)
	case "convert":
		return runConvert(args[1:], stdout)
	case "chunks":
		return runChunks(args[1:], stdout)
	case "edit":
		return runEdit(args[1:], stdout)
	case "-h", "-help", "--help", "help":
		return errUsage
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runDump(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	noColor := fs.Bool("no-color", false, "Disable colored output")
	file, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if *noColor {
		color.NoColor = true
	}
	tree, err := load(file)
	if err != nil {
		return err
	}
	return dumpTree(stdout, tree)
}

func runConvert(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	to := fs.String("to", "markdown", "Output format")
	out := fs.String("o", "", "Output file (default stdout)")
	file, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	tree, err := load(file)
	if err != nil {
		return err
	}
	return write(tree, *to, *out, stdout)
}

func runChunks(args []string, stdout io.Writer) error {
	def := chunker.DefaultConfig()
	fs := flag.NewFlagSet("chunks", flag.ContinueOnError)
	size := fs.Int("size", def.ChunkSize, "Target chunk size in tokens")
	overlap := fs.Int("overlap", def.ChunkOverlap, "Overlap between chunks in tokens")
	minChunk := fs.Int("min", 1, "Drop chunks below this many tokens")
	file, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	tree, err := load(file)
	if err != nil {
		return err
	}
	chunks := chunker.ChunkTree(tree, chunker.Config{ChunkSize: *size, ChunkOverlap: *overlap, MinChunk: *minChunk})
	enc := json.NewEncoder(stdout)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	return nil
}

func runEdit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	txFile := fs.String("tx", "", "Transaction JSON file (- for stdin)")
	to := fs.String("to", "json", "Output format")
	out := fs.String("o", "", "Output file (default stdout)")
	biasFlag := fs.String("bias", "right", "Default mapping bias: left or right")
	file, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if *txFile == "" {
		return fmt.Errorf("%w: -tx is required", errUsage)
	}
	bias, err := doctree.ParseBias(*biasFlag)
	if err != nil {
		return err
	}

	var raw []byte
	if *txFile == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(*txFile)
	}
	if err != nil {
		return fmt.Errorf("read transaction: %w", err)
	}
	var tx pipeline.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}

	tree, err := load(file)
	if err != nil {
		return err
	}
	doc := pipeline.NewDocument("cli", filepath.Base(file), "", tree)
	res, err := doc.Apply(tx, bias)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s version %d, %d nodes added, %d removed\n",
		color.GreenString("applied"), res.Version, res.NodesAdded, res.NodesRemoved)

	return doc.View(func(tree *doctree.Tree, _ *bridge.Bridge) error {
		return write(tree, *to, *out, stdout)
	})
}

func parseFlags(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %s", errUsage, err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s needs exactly one FILE", errUsage, fs.Name())
	}
	return fs.Arg(0), nil
}

// load parses a file with the parser for its extension. JSON snapshots
// written by convert -to json are read back as they are.
func load(file string) (*doctree.Tree, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(file), ".json") {
		return writer.ReadJSON(bytes.NewReader(data))
	}
	p, err := parser.ForFile(file, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), filepath.Base(file))
}

func write(tree *doctree.Tree, format, out string, stdout io.Writer) error {
	wr, err := writer.ForFormat(format)
	if err != nil {
		return err
	}
	if out == "" {
		return wr.Write(stdout, tree)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := wr.Write(f, tree); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
