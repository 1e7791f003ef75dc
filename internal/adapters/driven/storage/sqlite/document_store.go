package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	stamp(&doc.CreatedAt, &doc.UpdatedAt)

	tagsJSON, err := marshalTags(doc.Tags)
	if err != nil {
		return err
	}
	wordsJSON, err := marshalWords(doc.Words)
	if err != nil {
		return err
	}
	groupsJSON, err := marshalGroups(doc.Groups)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, body, owner, feed, category, tags, words, lemmas, groups_json,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			owner = excluded.owner,
			feed = excluded.feed,
			category = excluded.category,
			tags = excluded.tags,
			words = excluded.words,
			lemmas = excluded.lemmas,
			groups_json = excluded.groups_json,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Body, doc.Owner, doc.Feed, doc.Category,
		tagsJSON, wordsJSON, doc.Lemmas, groupsJSON, formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return persistErr("saving document", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, body, owner, feed, category, tags, words, lemmas, groups_json, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// SaveTags writes only the derived tags, words and lemmas.
func (s *documentStore) SaveTags(
	ctx context.Context,
	id string,
	tags []string,
	words map[string][]string,
	lemmas []byte,
) error {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return err
	}
	wordsJSON, err := marshalWords(words)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET tags = ?, words = ?, lemmas = ?, updated_at = ? WHERE id = ?
	`, tagsJSON, wordsJSON, lemmas, formatTime(time.Now()), id)
	if err != nil {
		return persistErr("saving tags", err)
	}
	return requireRow(res)
}

// SaveGroups writes only the derived topic groups.
func (s *documentStore) SaveGroups(ctx context.Context, id string, groups domain.Groups) error {
	groupsJSON, err := marshalGroups(groups)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET groups_json = ?, updated_at = ? WHERE id = ?
	`, groupsJSON, formatTime(time.Now()), id)
	if err != nil {
		return persistErr("saving groups", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("checking rows affected", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshalling tags: %w", err)
	}
	return string(data), nil
}

func marshalWords(words map[string][]string) (string, error) {
	if words == nil {
		words = map[string][]string{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		return "", fmt.Errorf("marshalling words: %w", err)
	}
	return string(data), nil
}

func marshalGroups(groups domain.Groups) (string, error) {
	if groups == nil {
		groups = domain.Groups{}
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return "", fmt.Errorf("marshalling groups: %w", err)
	}
	return string(data), nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var tagsJSON, wordsJSON, groupsJSON, createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Body, &doc.Owner, &doc.Feed, &doc.Category,
		&tagsJSON, &wordsJSON, &doc.Lemmas, &groupsJSON, &createdAt, &updatedAt); err != nil {
		return nil, notFound("scanning document", err)
	}

	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if wordsJSON != "" && wordsJSON != "{}" {
		if err := json.Unmarshal([]byte(wordsJSON), &doc.Words); err != nil {
			return nil, fmt.Errorf("unmarshaling words: %w", err)
		}
	}
	if groupsJSON != "" {
		if err := json.Unmarshal([]byte(groupsJSON), &doc.Groups); err != nil {
			return nil, fmt.Errorf("unmarshaling groups: %w", err)
		}
	}
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	return &doc, nil
}
