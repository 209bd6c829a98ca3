// Package reports stores the relay's image report log.
package reports

import (
	"context"
	"errors"

	"github.com/Nekos-API/Nekos.Land/internal/server/models"
)

var ErrNotFound = errors.New("report not found")

type Repository interface {
	// Create inserts r, assigning ID when empty, and returns it with
	// CreatedAt filled in.
	Create(ctx context.Context, r *models.Report) (*models.Report, error)
	MarkDelivered(ctx context.Context, id string) error
	// ListByImage returns the reports for imageID, newest first.
	ListByImage(ctx context.Context, imageID string) ([]models.Report, error)
}
