package gen

import (
	"path"
	"sort"
	"strings"
)

// File is one assembled output file, ready for the writer. Path is
// relative to the configured output root.
type File struct {
	Path    string
	Content string
}

// EmitOptions tune the assembly of rendered symbols into files.
type EmitOptions struct {
	// Header is prepended verbatim to every assigned file, before imports.
	// It overrides the run config's header when non-empty.
	Header string
	// Printer formats the rendered nodes. Nil uses the default printer.
	Printer *Printer
}

// fileImport accumulates the bindings one output file needs from one
// source, either another output file or an external package.
type fileImport struct {
	names     map[string]struct{}
	defaultAs string
}

// EmitFiles assembles the run's rendered symbols into output files. Within
// a file, symbols keep declaration order. Cross-file references listed in
// RenderWithImports become named imports from the providing file; same-file
// references produce no import. Ad-hoc artifacts pass through untouched
// and may not collide with assigned files.
func EmitFiles(res *Result, opts EmitOptions) ([]File, error) {
	printer := opts.Printer
	if printer == nil {
		printer = NewPrinter()
	}
	header := opts.Header
	if header == "" && res.cfg != nil {
		header = res.cfg.Header
	}

	// Group rendered symbols by assigned file, keeping declaration order
	// inside each group and first-appearance order across groups.
	groups := make(map[string][]RenderedRecord)
	var fileOrder []string
	for _, r := range res.Rendered {
		if _, ok := groups[r.File]; !ok {
			fileOrder = append(fileOrder, r.File)
		}
		groups[r.File] = append(groups[r.File], r)
	}
	for _, f := range fileOrder {
		g := groups[f]
		sort.SliceStable(g, func(i, j int) bool { return g[i].declIndex < g[j].declIndex })
	}

	var out []File
	emitted := make(map[string]emittedFile)
	for _, file := range fileOrder {
		content, err := assembleFile(res, file, groups[file], header, printer)
		if err != nil {
			return nil, err
		}
		// A group of bookkeeping-only declarations produces no file.
		if content == "" {
			continue
		}
		out = append(out, File{Path: file, Content: content})
		emitted[file] = emittedFile{content: content, plugins: groupPlugins(groups[file])}
	}

	for _, a := range res.Artifacts {
		if prev, ok := emitted[a.Path]; ok {
			if prev.content == a.Content {
				continue
			}
			return nil, &EmitConflictError{Path: a.Path, Plugins: appendPlugin(prev.plugins, a.Plugin)}
		}
		out = append(out, File{Path: a.Path, Content: a.Content})
		emitted[a.Path] = emittedFile{content: a.Content, plugins: []string{a.Plugin}}
	}
	return out, nil
}

type emittedFile struct {
	content string
	plugins []string
}

func groupPlugins(symbols []RenderedRecord) []string {
	var plugins []string
	for _, s := range symbols {
		plugins = appendPlugin(plugins, s.Plugin)
	}
	return plugins
}

func appendPlugin(plugins []string, name string) []string {
	for _, p := range plugins {
		if p == name {
			return plugins
		}
	}
	return append(plugins, name)
}

func assembleFile(res *Result, file string, symbols []RenderedRecord, header string, printer *Printer) (string, error) {
	crossFile := make(map[string]*fileImport)
	var crossOrder []string
	external := make(map[string]*fileImport)
	var externalOrder []string

	var fragments []string
	for _, s := range symbols {
		for _, c := range s.RenderWithImports {
			entry, ok := res.Registry.Resolve(c)
			if !ok {
				return "", &UnsatisfiedError{Capability: c, Plugin: s.Plugin}
			}
			if entry.File == file {
				continue
			}
			imp, ok := crossFile[entry.File]
			if !ok {
				imp = &fileImport{names: make(map[string]struct{})}
				crossFile[entry.File] = imp
				crossOrder = append(crossOrder, entry.File)
			}
			imp.names[entry.Name] = struct{}{}
		}
		for _, e := range s.ExternalImports {
			imp, ok := external[e.Package]
			if !ok {
				imp = &fileImport{names: make(map[string]struct{})}
				external[e.Package] = imp
				externalOrder = append(externalOrder, e.Package)
			}
			for _, n := range e.Names {
				imp.names[n] = struct{}{}
			}
			if e.Default != "" {
				imp.defaultAs = e.Default
			}
		}

		if s.Node == nil {
			continue
		}
		frag, err := s.Node.Fragment(printer)
		if err != nil {
			return "", &RenderError{Plugin: s.Plugin, Symbol: s.Name, Message: err.Error(), Cause: err}
		}
		fragments = append(fragments, exportPrefix(s.Export)+frag)
	}

	if len(fragments) == 0 {
		return "", nil
	}

	var b strings.Builder
	if header != "" {
		b.WriteString(strings.TrimRight(header, "\n"))
		b.WriteString("\n\n")
	}
	var imports []string
	for _, pkg := range externalOrder {
		imports = append(imports, importStatement(pkg, external[pkg]))
	}
	for _, src := range crossOrder {
		imports = append(imports, importStatement(relModulePath(file, src), crossFile[src]))
	}
	if len(imports) > 0 {
		b.WriteString(strings.Join(imports, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(fragments, "\n\n"))
	b.WriteString("\n")
	return b.String(), nil
}

func importStatement(specifier string, imp *fileImport) string {
	names := make([]string, 0, len(imp.names))
	for n := range imp.names {
		names = append(names, n)
	}
	sort.Strings(names)

	var clauses []string
	if imp.defaultAs != "" {
		clauses = append(clauses, imp.defaultAs)
	}
	if len(names) > 0 {
		clauses = append(clauses, "{ "+strings.Join(names, ", ")+" }")
	}
	if len(clauses) == 0 {
		return `import "` + specifier + `";`
	}
	return "import " + strings.Join(clauses, ", ") + ` from "` + specifier + `";`
}

func exportPrefix(e Export) string {
	switch e {
	case ExportNamed:
		return "export "
	case ExportDefault:
		return "export default "
	default:
		return ""
	}
}

// relModulePath turns the path of an imported output file into a module
// specifier relative to the importing file, keeping the extension and
// adding an explicit "./" for same-directory imports.
func relModulePath(from, to string) string {
	fromDir := path.Dir(from)

	fromParts := splitClean(fromDir)
	toParts := splitClean(to)
	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}
	var parts []string
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	rel := path.Join(parts...)
	if !strings.HasPrefix(rel, "..") {
		rel = "./" + rel
	}
	return rel
}

func splitClean(p string) []string {
	p = path.Clean(p)
	if p == "." || p == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}
