package catalog

import (
	"embed"
	"fmt"

	"github.com/txn2/dma-readiness/pkg/engine"
)

//go:embed sql
var embedded embed.FS

const canonicalDir = "sql/canonical"

// sourceDirs maps each engine to its embedded collection catalog.
var sourceDirs = map[engine.Type]string{
	engine.Postgres:  "sql/sources/postgres",
	engine.MySQL:     "sql/sources/mysql",
	engine.Oracle:    "sql/sources/oracle",
	engine.SQLServer: "sql/sources/sqlserver",
}

// ForEngine loads the collection and extended collection catalog for a
// source engine.
func ForEngine(e engine.Type) (*Catalog, error) {
	dir, ok := sourceDirs[e]
	if !ok {
		return nil, &LoadError{Catalog: "sources/" + e.String(), Err: fmt.Errorf("%w: %s", ErrNoCatalog, e)}
	}
	return Load("sources/"+e.String(), embedded, dir)
}

// Canonical loads the transformation and assessment catalog that runs against
// the staging store.
func Canonical() (*Catalog, error) {
	return Load("canonical", embedded, canonicalDir)
}
