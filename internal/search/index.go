package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

// mappingVersion is bumped whenever the index mapping changes; a mismatch on
// startup triggers a rebuild from scratch.
const mappingVersion = "1"

// Index wraps a Bleve index of animal documents. All public methods are safe
// for concurrent use; the mutex guards the index swap during rebuilds.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// New creates or opens the animal search index under DataPath. An index with
// a stale or missing mapping version is discarded and recreated.
func New(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping outdated, rebuilding",
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing search index, recreating",
				"path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened search index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// buildIndexMapping defines the animal document mapping: English-analyzed
// text for name, breeds and description; keyword fields for the filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = en.AnalyzerName
	nameField.Store = true
	nameField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("name", nameField)

	breedField := bleve.NewTextFieldMapping()
	breedField.Analyzer = en.AnalyzerName
	breedField.Store = true
	breedField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("breed", breedField)
	docMapping.AddFieldMappingsAt("secondary_breed", breedField)

	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = en.AnalyzerName
	descField.Store = false
	docMapping.AddFieldMappingsAt("description", descField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idField)

	orgField := bleve.NewTextFieldMapping()
	orgField.Analyzer = keyword.Name
	orgField.Store = true
	docMapping.AddFieldMappingsAt("organization_id", orgField)

	statusField := bleve.NewTextFieldMapping()
	statusField.Analyzer = keyword.Name
	statusField.Store = true
	docMapping.AddFieldMappingsAt("status", statusField)
	docMapping.AddFieldMappingsAt("confidence", statusField)

	updatedField := bleve.NewNumericFieldMapping()
	updatedField.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexAnimal indexes one animal. Satisfies the store's indexer hook.
func (s *Index) IndexAnimal(a *domain.Animal) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := FromAnimal(a)
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteAnimal removes an animal from the index.
func (s *Index) DeleteAnimal(animalID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(animalID)
}

// IndexAnimals indexes a batch of animals, used when rebuilding.
func (s *Index) IndexAnimals(animals []*domain.Animal) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(animals); i += batchSize {
		end := min(i+batchSize, len(animals))

		batch := s.index.NewBatch()
		for _, a := range animals[i:end] {
			doc := FromAnimal(a)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DocumentCount returns the number of indexed animals.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
