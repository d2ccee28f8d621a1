// Package modules loads typed programs serialized as YAML documents.
//
// A program is one file, or a directory whose program files are merged.
// Each file may name a package; its callables are declared in it.
package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/token"
	"gopkg.in/yaml.v3"
)

// hasProgramExt reports whether name carries a recognized program extension.
func hasProgramExt(name string) bool {
	for _, ext := range config.ProgramFileExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// programFiles lists the program files of dir in name order.
func programFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !hasProgramExt(e.Name()) {
			continue
		}
		if isConfigFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func isConfigFile(name string) bool {
	for _, c := range config.ConfigFileNames {
		if name == c {
			return true
		}
	}
	return false
}

// Loader reads program files and caches the decoded programs by path.
type Loader struct {
	Loaded map[string]*ast.Program
}

func NewLoader() *Loader {
	return &Loader{Loaded: make(map[string]*ast.Program)}
}

// Load reads a program file or merges every program file of a directory.
func (l *Loader) Load(path string) (*ast.Program, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if p, ok := l.Loaded[absPath]; ok {
		return p, nil
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	var prog *ast.Program
	if info.IsDir() {
		prog, err = l.loadDir(absPath)
	} else {
		var data []byte
		if data, err = os.ReadFile(absPath); err == nil {
			prog, err = ParseProgram(data, path)
		}
	}
	if err != nil {
		return nil, err
	}
	l.Loaded[absPath] = prog
	return prog, nil
}

func (l *Loader) loadDir(dir string) (*ast.Program, error) {
	files, err := programFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no program files", dir)
	}
	docs := make([]*yaml.Node, len(files))
	for i, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}
		docs[i] = &doc
	}
	return decodeProgram(files, docs, dir)
}

// ParseProgram decodes a single program document. The file argument is
// recorded in every span.
func ParseProgram(data []byte, file string) (*ast.Program, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	return decodeProgram([]string{file}, []*yaml.Node{&doc}, file)
}

// fileHeader is the part of a document read before callables are decoded.
type fileHeader struct {
	pkg       string
	entry     *yaml.Node
	callables *yaml.Node
}

func decodeProgram(files []string, docs []*yaml.Node, name string) (*ast.Program, error) {
	headers := make([]fileHeader, len(docs))
	globals := make(map[string]bool)
	for i, doc := range docs {
		d := &decoder{file: files[i]}
		root := doc
		if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
			root = root.Content[0]
		}
		f, err := d.fields(root)
		if err != nil {
			return nil, err
		}
		h := fileHeader{entry: f["entry"], callables: f["callables"]}
		if p, ok := f["package"]; ok {
			h.pkg = p.Value
		}
		if h.callables == nil || h.callables.Kind != yaml.SequenceNode {
			return nil, d.errorf(diagnostics.ErrI001, root, "callables must be a sequence")
		}
		// Names are collected up front so bodies can refer to callables
		// declared later or in another file.
		for _, c := range h.callables.Content {
			if c.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(c.Content); j += 2 {
				if c.Content[j].Value == "name" {
					globals[c.Content[j+1].Value] = true
				}
			}
		}
		headers[i] = h
	}

	prog := &ast.Program{File: name}
	seen := make(map[string]token.Token)
	for i, h := range headers {
		d := &decoder{file: files[i], pkg: h.pkg, globals: globals}
		if h.entry != nil {
			if prog.Entry != "" && prog.Entry != h.entry.Value {
				return nil, d.errorf(diagnostics.ErrI001, h.entry, "conflicting entry points %s and %s", prog.Entry, h.entry.Value)
			}
			prog.Entry = h.entry.Value
		}
		for _, c := range h.callables.Content {
			decl, err := d.callable(c)
			if err != nil {
				return nil, err
			}
			if prev, dup := seen[decl.Name]; dup {
				return nil, d.errorf(diagnostics.ErrI001, c, "callable %s already declared at %s", decl.Name, prev)
			}
			seen[decl.Name] = decl.Token
			prog.Callables = append(prog.Callables, decl)
		}
	}
	if prog.Entry != "" {
		if _, ok := prog.Lookup(prog.Entry); !ok {
			return nil, diagnostics.NewError(diagnostics.ErrI004, token.Token{File: name}, fmt.Sprintf("entry point %s is not declared", prog.Entry))
		}
	}
	return prog, nil
}
