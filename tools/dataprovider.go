package tools

import (
	"io/fs"
)

// DataProvider reads the bundled documentation files.
//
// Implementations:
//   - embeddedDataProvider: embed.FS, used in production
//   - MockDataProvider: in-memory map, used in tests
type DataProvider interface {
	// ReadFile reads the named file, e.g. "data/docs/search_index.js".
	ReadFile(name string) ([]byte, error)

	// ReadDir lists the named directory, e.g. "data/docs".
	ReadDir(name string) ([]fs.DirEntry, error)
}
