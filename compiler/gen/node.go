package gen

import "strings"

// Printer carries the formatting settings a node may consult when turning
// itself into source text. The engine passes one printer per emission run;
// it never inspects node internals beyond Fragment.
type Printer struct {
	// Indent is the indentation unit for nodes that produce nested text.
	Indent string
}

// NewPrinter returns a printer with the default two-space indent.
func NewPrinter() *Printer { return &Printer{Indent: "  "} }

// Node is an opaque, printable code fragment. The engine never depends on
// any specific syntax-tree representation; anything that can print itself
// can flow through the pipeline.
type Node interface {
	// Fragment returns the source text of the node, without surrounding
	// blank lines.
	Fragment(p *Printer) (string, error)
}

// Text is a literal source fragment.
type Text string

// Fragment implements Node.
func (t Text) Fragment(*Printer) (string, error) {
	return strings.TrimRight(string(t), "\n"), nil
}

// FragmentFunc adapts a function to the Node interface, for fragments that
// are cheaper to assemble lazily at emit time.
type FragmentFunc func(p *Printer) (string, error)

// Fragment implements Node.
func (f FragmentFunc) Fragment(p *Printer) (string, error) { return f(p) }

// Export describes how a rendered symbol is exported from its file.
type Export int

const (
	// ExportNone keeps the symbol file-local.
	ExportNone Export = iota
	// ExportNamed exports the symbol under its declared name.
	ExportNamed
	// ExportDefault makes the symbol the file's default export.
	ExportDefault
)

// ExternalImport is a package-level import a rendered symbol needs, e.g. a
// third-party library. Imports for the same package are merged and their
// names deduplicated at emit time.
type ExternalImport struct {
	// Package is the module specifier, e.g. "zod".
	Package string
	// Names are the named bindings to import.
	Names []string
	// Default is the default-import binding, if any.
	Default string
}
