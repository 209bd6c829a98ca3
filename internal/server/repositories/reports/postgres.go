package reports

import (
	"context"
	"fmt"

	"github.com/Nekos-API/Nekos.Land/internal/dbx"
	"github.com/Nekos-API/Nekos.Land/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO image_reports (id, image_id, user_id, username, message)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		report.ID, report.ImageID, report.UserID, report.Username, report.Message).Scan(&report.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return report, nil
}

func (r *PostgresRepository) MarkDelivered(ctx context.Context, id string) error {
	query :=
		`UPDATE image_reports SET delivered = TRUE
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByImage(ctx context.Context, imageID string) ([]models.Report, error) {
	query :=
		`SELECT id, image_id, user_id, username, message, delivered, created_at
		 FROM image_reports
		 WHERE image_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, imageID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.ImageID, &rep.UserID, &rep.Username, &rep.Message, &rep.Delivered, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
