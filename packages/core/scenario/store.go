package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// PostmanCollectionInfix marks exported collections whose run results are
// written back as a plain scenario file.
const PostmanCollectionInfix = ".postman_collection"

// Store loads documents and resolves references between them.
type Store interface {
	Load(path string) (*Document, error)
	Resolve(ref, dataDir string) (string, error)
	DataDir(path string) string
}

// FileStore reads scenario documents from the file system. Root is the data
// directory; a document's data directory is the first-level directory under
// Root that contains it.
type FileStore struct {
	root   string
	schema *gojsonschema.Schema
}

func NewFileStore(root string) (*FileStore, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling document schema: %w", err)
	}

	s := &FileStore{schema: schema}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving data root: %w", err)
		}
		s.root = abs
	}
	return s, nil
}

func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving scenario path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	return s.Decode(abs, data)
}

// Decode validates data against the document schema and decodes it.
func (s *FileStore) Decode(path string, data []byte) (*Document, error) {
	if err := s.Validate(path, data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding scenario %s: %w", path, err)
	}
	doc.Path = path
	doc.Reindex()
	return &doc, nil
}

func (s *FileStore) Validate(path string, data []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &SchemaError{Path: path, Problems: problems}
}

// DataDir returns the directory references inside path are resolved from.
func (s *FileStore) DataDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if s.root != "" {
		rel, err := filepath.Rel(s.root, abs)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
			if first != filepath.Base(abs) {
				return filepath.Join(s.root, first)
			}
		}
	}
	return filepath.Dir(abs)
}

func (s *FileStore) Resolve(ref, dataDir string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, ref)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving reference %q: %w", ref, err)
	}
	return abs, nil
}

// Save writes doc as indented JSON.
func (s *FileStore) Save(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}

// RecordedPath returns where the recorded copy of a Postman collection is
// written: the same path with the collection infix removed from its name.
func RecordedPath(path string) (string, bool) {
	dir, base := filepath.Split(path)
	if !strings.Contains(base, PostmanCollectionInfix) {
		return "", false
	}
	return dir + strings.Replace(base, PostmanCollectionInfix, "", 1), true
}
