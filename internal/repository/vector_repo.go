package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// VectorDocument is an embedding to be written into the index.
type VectorDocument struct {
	ID            string
	CandidateName string
	TextHash      string
	Embedding     []float32
}

// Neighbor is one query hit: the stored id and its squared L2 distance to the query.
type Neighbor struct {
	ID       string
	Distance float64
}

// VectorIndex stores resume embeddings and answers nearest-neighbour queries.
type VectorIndex interface {
	Upsert(ctx context.Context, docs []VectorDocument) error
	Query(ctx context.Context, embedding []float32, ids []string, limit int) ([]Neighbor, error)
}

type vectorRepository struct {
	db *gorm.DB
}

// NewVectorRepository returns a VectorIndex backed by the resume_vectors table.
func NewVectorRepository(db *gorm.DB) VectorIndex {
	return &vectorRepository{db: db}
}

// Upsert inserts new vectors and overwrites existing ones with the same id.
func (r *vectorRepository) Upsert(ctx context.Context, docs []VectorDocument) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([]models.ResumeVector, 0, len(docs))
	for _, doc := range docs {
		payload, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding %s: %w", doc.ID, err)
		}
		rows = append(rows, models.ResumeVector{
			ID:            doc.ID,
			CandidateName: doc.CandidateName,
			TextHash:      doc.TextHash,
			Dimensions:    len(doc.Embedding),
			Embedding:     datatypes.JSON(payload),
		})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"candidate_name", "text_hash", "dimensions", "embedding", "updated_at"}),
	}).Create(&rows).Error
}

// Query ranks the stored vectors with the given ids by distance to embedding and returns at most limit hits.
func (r *vectorRepository) Query(ctx context.Context, embedding []float32, ids []string, limit int) ([]Neighbor, error) {
	if len(ids) == 0 || limit <= 0 {
		return []Neighbor{}, nil
	}

	var rows []models.ResumeVector
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(rows))
	for _, row := range rows {
		var stored []float32
		if err := json.Unmarshal(row.Embedding, &stored); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", row.ID, err)
		}
		if len(stored) != len(embedding) {
			return nil, fmt.Errorf("embedding %s has %d dimensions, query has %d", row.ID, len(stored), len(embedding))
		}
		neighbors = append(neighbors, Neighbor{ID: row.ID, Distance: SquaredL2(embedding, stored)})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

// SquaredL2 is the squared euclidean distance between two equal-length vectors.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum
}
