package postgresengine

import (
	"fmt"
	"slices"
)

// frameSchema is the statically known shape of a frame at one step of a compiled query.
type frameSchema struct {
	indexName string
	indexed   bool
	columns   []string
}

func newFrameSchema(indexName string, columns []string) frameSchema {
	return frameSchema{
		indexName: indexName,
		indexed:   indexName != "",
		columns:   slices.Clone(columns),
	}
}

func (fs frameSchema) has(name string) bool {
	return slices.Contains(fs.columns, name)
}

func (fs frameSchema) isIndex(name string) bool {
	return fs.indexed && name == fs.indexName
}

func (fs frameSchema) require(names ...string) error {
	for _, name := range names {
		if !fs.has(name) && !fs.isIndex(name) {
			return fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, name, fs.columns)
		}
	}

	return nil
}

func (fs frameSchema) withColumn(name string) frameSchema {
	if fs.has(name) {
		return fs
	}

	fs.columns = append(slices.Clip(fs.columns), name)

	return fs
}

func (fs frameSchema) withColumns(names []string) frameSchema {
	fs.columns = slices.Clone(names)

	return fs
}

func (fs frameSchema) withoutIndex() frameSchema {
	fs.indexed = false
	fs.indexName = ""

	return fs
}
