package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizgen/internal/model"
)

// QuestionRepository handles generated-question archive access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts one accepted question into the archive.
func (r *QuestionRepository) Create(ctx context.Context, q *model.ArchivedQuestion) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO generated_questions (question_text, options, correct_answer, explanation, difficulty, quality_score, chunk_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		q.QuestionText, options, q.CorrectAnswer, q.Explanation, q.Difficulty, q.QualityScore, q.ChunkHash,
	).Scan(&q.ID, &q.CreatedAt)
}

// ListRecent retrieves archived questions newest first.
func (r *QuestionRepository) ListRecent(ctx context.Context, limit, offset int) ([]model.ArchivedQuestion, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM generated_questions`,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, options, correct_answer, explanation, difficulty, quality_score, chunk_hash, created_at
		 FROM generated_questions
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.ArchivedQuestion
	for rows.Next() {
		var q model.ArchivedQuestion
		var options []byte
		if err := rows.Scan(&q.ID, &q.QuestionText, &options, &q.CorrectAnswer, &q.Explanation, &q.Difficulty, &q.QualityScore, &q.ChunkHash, &q.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}
