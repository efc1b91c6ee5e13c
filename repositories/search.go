package repositories

import (
	"context"
	"fmt"
	"pajal/domain"
	"strings"
	"sync"

	"github.com/blugelabs/bluge"
)

var searchFields = []string{"name", "location", "note", "lecturers"}

// ClassIndex is an in-memory full-text index over class sessions.
type ClassIndex struct {
	mu      sync.Mutex
	writer  *bluge.Writer
	indexed domain.IDSet
	limit   int
}

func NewClassIndex(limit int) (*ClassIndex, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("opening class index: %w", err)
	}
	return &ClassIndex{writer: writer, indexed: domain.NewIDSet(), limit: limit}, nil
}

// Sync makes the index mirror classes exactly.
func (i *ClassIndex) Sync(classes []domain.ClassSession) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	current := domain.NewIDSet()
	for _, c := range classes {
		current.Add(c.ID)
		doc := bluge.NewDocument(c.ID).
			AddField(bluge.NewTextField("name", c.Name).StoreValue()).
			AddField(bluge.NewTextField("location", c.Location)).
			AddField(bluge.NewTextField("note", c.Note)).
			AddField(bluge.NewTextField("lecturers", strings.Join(c.Lecturers, " ")))
		if err := i.writer.Update(doc.ID(), doc); err != nil {
			return fmt.Errorf("indexing class %s: %w", c.ID, err)
		}
	}
	for id := range i.indexed {
		if current.Has(id) {
			continue
		}
		if err := i.writer.Delete(bluge.Identifier(id)); err != nil {
			return fmt.Errorf("removing class %s: %w", id, err)
		}
	}
	i.indexed = current
	return nil
}

// Search returns the ids of classes where every query term prefixes a word
// of the name, room, note or lecturers. A non-nil within restricts the
// candidates before the result limit applies.
func (i *ClassIndex) Search(ctx context.Context, text string, within domain.IDSet) (domain.IDSet, error) {
	terms := strings.Fields(strings.ToLower(text))
	found := domain.NewIDSet()
	if len(terms) == 0 || (within != nil && len(within) == 0) {
		return found, nil
	}

	query := bluge.NewBooleanQuery()
	for _, term := range terms {
		anyField := bluge.NewBooleanQuery().SetMinShould(1)
		for _, field := range searchFields {
			anyField.AddShould(bluge.NewPrefixQuery(term).SetField(field))
		}
		query.AddMust(anyField)
	}
	if within != nil {
		anyID := bluge.NewBooleanQuery().SetMinShould(1)
		for id := range within {
			anyID.AddShould(bluge.NewTermQuery(id).SetField("_id"))
		}
		query.AddMust(anyID)
	}

	i.mu.Lock()
	reader, err := i.writer.Reader()
	i.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("opening class index reader: %w", err)
	}
	defer reader.Close()

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(i.limit, query))
	if err != nil {
		return nil, fmt.Errorf("searching classes: %w", err)
	}
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				found.Add(string(value))
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return found, nil
}

func (i *ClassIndex) Close() error {
	return i.writer.Close()
}
