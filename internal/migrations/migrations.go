// Package migrations holds the schema and seed scripts applied on first connection.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed *.up.sql
var files embed.FS

// Script is a named SQL script.
type Script struct {
	Name string
	SQL  string
}

// Scripts returns every *.up.sql script in lexical (apply) order.
func Scripts() ([]Script, error) {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("fs.Glob: %w", err)
	}
	sort.Strings(names)

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("files.ReadFile[%s]: %w", name, err)
		}
		scripts = append(scripts, Script{Name: name, SQL: string(data)})
	}

	return scripts, nil
}
