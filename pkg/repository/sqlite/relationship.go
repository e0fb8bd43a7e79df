package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/domain/interfaces"
	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

type relationshipRepository struct {
	db *sql.DB
}

func (r *relationshipRepository) Store(ctx context.Context, documentID string, relationships model.RelationshipSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction", goerr.V("documentID", documentID))
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().UnixMilli()
	for relType, targets := range relationships {
		for _, target := range targets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO relationships (document_id, relationship_type, target, created_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (document_id, relationship_type, target) DO UPDATE SET created_at = excluded.created_at`,
				documentID, string(relType), target, now,
			); err != nil {
				return goerr.Wrap(err, "failed to upsert relationship",
					goerr.V("documentID", documentID),
					goerr.V("type", relType),
					goerr.V("target", target),
				)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit relationships", goerr.V("documentID", documentID))
	}
	return nil
}

func (r *relationshipRepository) Get(ctx context.Context, documentID string) (model.RelationshipSet, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT relationship_type, target FROM relationships WHERE document_id = ?", documentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read relationships", goerr.V("documentID", documentID))
	}
	defer func() { _ = rows.Close() }()

	set := model.RelationshipSet{}
	for rows.Next() {
		var relType, target string
		if err := rows.Scan(&relType, &target); err != nil {
			return nil, goerr.Wrap(err, "failed to scan relationship row")
		}
		set.Add(types.RelationshipType(relType), target)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate relationships", goerr.V("documentID", documentID))
	}
	return set.Sorted(), nil
}

func (r *relationshipRepository) Query(ctx context.Context, query *interfaces.RelationshipQuery) ([]*model.RelationshipFact, error) {
	if query == nil {
		query = &interfaces.RelationshipQuery{}
	}

	sqlQuery := "SELECT document_id, relationship_type, target, created_at FROM relationships WHERE 1=1"
	var args []any

	if query.DocumentID != "" {
		sqlQuery += " AND document_id = ?"
		args = append(args, query.DocumentID)
	}
	if query.RelationshipType != "" {
		sqlQuery += " AND relationship_type = ?"
		args = append(args, string(query.RelationshipType))
	}
	if query.Target != "" {
		sqlQuery += " AND target LIKE ?"
		args = append(args, "%"+query.Target+"%")
	}
	sqlQuery += " ORDER BY document_id, relationship_type, target LIMIT ?"
	args = append(args, interfaces.MaxQueryResults)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query relationships")
	}
	defer func() { _ = rows.Close() }()

	var results []*model.RelationshipFact
	for rows.Next() {
		var documentID, relType, target string
		var createdAt int64
		if err := rows.Scan(&documentID, &relType, &target, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan relationship fact")
		}
		results = append(results, &model.RelationshipFact{
			DocumentID:       documentID,
			RelationshipType: types.RelationshipType(relType),
			Target:           target,
			CreatedAt:        time.UnixMilli(createdAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate relationship facts")
	}
	return results, nil
}

func (r *relationshipRepository) Clear(ctx context.Context, documentID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM relationships WHERE document_id = ?", documentID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clear relationships", goerr.V("documentID", documentID))
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count cleared relationships")
	}
	return int(count), nil
}
