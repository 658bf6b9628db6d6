package catalog

import (
	"bufio"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

// nameHeader matches "-- name: <identifier>" with an optional trailing
// operator suffix (!, #, *!, <!, $, ^) as written in aiosql-style files.
var nameHeader = regexp.MustCompile(`^--\s*name:\s*([A-Za-z_][A-Za-z0-9_]*)([!#$^*<]*)\s*$`)

// Load reads every .sql file in dir, in lexical filename order, and builds a
// catalog from their named blocks.
func Load(name string, fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, &LoadError{Catalog: name, Err: fmt.Errorf("reading catalog directory: %w", err)}
	}

	var specs []Spec
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		file := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, &LoadError{Catalog: name, File: file, Err: fmt.Errorf("reading file: %w", err)}
		}
		parsed, err := Parse(string(data))
		if err != nil {
			return nil, &LoadError{Catalog: name, File: file, Err: err}
		}
		specs = append(specs, parsed...)
	}

	return New(name, specs...)
}

// Parse splits the text of one catalog file into its named statements.
func Parse(text string) ([]Spec, error) {
	var (
		specs   []Spec
		current *Spec
		desc    []string
		body    []string
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		current.Description = strings.Join(desc, " ")
		current.SQL = trimStatement(strings.Join(body, "\n"))
		if current.SQL == "" {
			return fmt.Errorf("%w: %s", ErrEmptyStatement, current.Name)
		}
		specs = append(specs, *current)
		current, desc, body = nil, nil, nil
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if m := nameHeader.FindStringSubmatch(trimmed); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			category, ok := CategoryOf(m[1])
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, m[1])
			}
			current = &Spec{Name: m[1], Category: category}
			continue
		}

		if current == nil {
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			return nil, ErrStrayStatement
		}

		// Comment lines directly under the header describe the statement.
		if len(body) == 0 && strings.HasPrefix(trimmed, "--") {
			desc = append(desc, strings.TrimSpace(strings.TrimPrefix(trimmed, "--")))
			continue
		}
		if len(body) == 0 && trimmed == "" {
			continue
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning catalog text: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return specs, nil
}

// trimStatement drops surrounding whitespace and trailing semicolons, which
// some drivers (Oracle in particular) reject.
func trimStatement(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}
