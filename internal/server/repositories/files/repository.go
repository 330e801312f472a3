package files

import (
	"context"

	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	Get(ctx context.Context, id int64) (*models.File, error)
	List(ctx context.Context) ([]models.File, error)
	Delete(ctx context.Context, id int64) error
	StorageKeysByOwner(ctx context.Context, userID int64) ([]string, error)
}
