package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caldera-ai/concierge/internal/provider"
)

// KnowledgeRepo serves knowledge.search over the tenant's document table
// using Postgres full-text search. The vector store proper lives elsewhere;
// this is the narrow search surface the dispatcher consumes.
type KnowledgeRepo struct {
	pool *pgxpool.Pool
}

func NewKnowledgeRepo(pool *pgxpool.Pool) *KnowledgeRepo {
	return &KnowledgeRepo{pool: pool}
}

func (r *KnowledgeRepo) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]provider.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, content,
		        ts_rank(tsv, websearch_to_tsquery('simple', $2)) AS rank
		 FROM knowledge_documents
		 WHERE tenant_id = $1 AND tsv @@ websearch_to_tsquery('simple', $2)
		 ORDER BY rank DESC
		 LIMIT $3`,
		tenantID, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("knowledgeRepo.Search: %w", err)
	}
	defer rows.Close()

	var docs []provider.Document
	for rows.Next() {
		var d provider.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Score); err != nil {
			return nil, fmt.Errorf("knowledgeRepo.Search: scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledgeRepo.Search: rows: %w", err)
	}

	return docs, nil
}
