package tools

import (
	"io/fs"
	"sort"
	"strings"
	"time"
)

// MockDataProvider is an in-memory DataProvider for tests.
type MockDataProvider struct {
	files map[string][]byte
}

// NewMockDataProvider creates a new mock data provider for testing.
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		files: make(map[string][]byte),
	}
}

// AddFile adds a file to the mock provider.
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = content
}

// ReadFile reads a file from the mock storage.
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	content, exists := m.files[name]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// ReadDir lists files directly under name plus the first segment of any
// deeper path as a directory. Entries are sorted by name like embed.FS.
func (m *MockDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	seen := make(map[string]bool)
	prefix := strings.TrimSuffix(name, "/") + "/"

	for filePath := range m.files {
		rest, ok := strings.CutPrefix(filePath, prefix)
		if !ok || rest == "" {
			continue
		}
		head, _, nested := strings.Cut(rest, "/")
		if nested {
			seen[head] = true
		} else if _, exists := seen[head]; !exists {
			seen[head] = false
		}
	}

	if len(seen) == 0 {
		return nil, fs.ErrNotExist
	}

	entries := make([]fs.DirEntry, 0, len(seen))
	for entryName, isDir := range seen {
		entries = append(entries, &mockDirEntry{name: entryName, isDir: isDir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// mockDirEntry implements fs.DirEntry for testing.
type mockDirEntry struct {
	name  string
	isDir bool
}

func (e *mockDirEntry) Name() string {
	return e.name
}

func (e *mockDirEntry) IsDir() bool {
	return e.isDir
}

func (e *mockDirEntry) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e *mockDirEntry) Info() (fs.FileInfo, error) {
	return &mockFileInfo{
		name:  e.name,
		isDir: e.isDir,
	}, nil
}

// mockFileInfo implements fs.FileInfo for testing.
type mockFileInfo struct {
	name  string
	isDir bool
}

func (i *mockFileInfo) Name() string       { return i.name }
func (i *mockFileInfo) Size() int64        { return 0 }
func (i *mockFileInfo) Mode() fs.FileMode  { return 0 }
func (i *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (i *mockFileInfo) IsDir() bool        { return i.isDir }
func (i *mockFileInfo) Sys() interface{}   { return nil }

// SetDefaultDataProvider swaps the provider used for embedded extraction.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider restores the embed.FS provider.
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
