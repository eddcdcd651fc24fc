// Package migrations embeds the schema files of both storage backends.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.surql postgres/*.sql
var files embed.FS

// SurrealQL returns the SurrealDB migrations in apply order
func SurrealQL() ([]string, error) {
	return load(".", ".surql")
}

// Postgres returns the PostgreSQL migrations in apply order
func Postgres() ([]string, error) {
	return load("postgres", ".sql")
}

func load(dir, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		path := name
		if dir != "." {
			path = dir + "/" + name
		}
		content, err := fs.ReadFile(files, path)
		if err != nil {
			return nil, err
		}
		out = append(out, string(content))
	}
	return out, nil
}
