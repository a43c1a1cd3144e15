package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/snapsweep/media-service/internal/models"
	"github.com/snapsweep/media-service/internal/repositories"
	"github.com/snapsweep/media-service/internal/utils"
)

const (
	defaultBinPageSize = 50
	maxBinPageSize     = 200
)

// MarkerService owns the pending bin: marking assets for deletion and
// restoring them. Committing the bin is the orchestrator's job.
type MarkerService struct {
	markers repositories.PendingMarkerRepository
}

func NewMarkerService(markers repositories.PendingMarkerRepository) *MarkerService {
	return &MarkerService{markers: markers}
}

// Mark records a "delete this" decision. Re-marking is idempotent.
func (s *MarkerService) Mark(ctx context.Context, assetID string, sizeBytes *int64) error {
	if strings.TrimSpace(assetID) == "" {
		return utils.ErrInvalidAssetID
	}
	if err := s.markers.Mark(ctx, assetID, sizeBytes); err != nil {
		return fmt.Errorf("%w: mark asset: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

// Restore removes the given markers, putting the assets back in the
// library view. Unknown ids are ignored.
func (s *MarkerService) Restore(ctx context.Context, ids []string) error {
	if err := s.markers.Remove(ctx, ids); err != nil {
		return fmt.Errorf("%w: restore assets: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

// RestoreAll empties the bin.
func (s *MarkerService) RestoreAll(ctx context.Context) error {
	if err := s.markers.RemoveAll(ctx); err != nil {
		return fmt.Errorf("%w: restore all: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

// List pages through the bin, most recently marked first.
func (s *MarkerService) List(ctx context.Context, limit, offset int) ([]*models.PendingMarker, error) {
	if limit <= 0 {
		limit = defaultBinPageSize
	}
	if limit > maxBinPageSize {
		limit = maxBinPageSize
	}
	if offset < 0 {
		offset = 0
	}
	markers, err := s.markers.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list bin: %v", utils.ErrStoreUnavailable, err)
	}
	return markers, nil
}

// Stats returns the bin's count and size estimate.
func (s *MarkerService) Stats(ctx context.Context) (count int, totalBytes int64, err error) {
	count, err = s.markers.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: count bin: %v", utils.ErrStoreUnavailable, err)
	}
	totalBytes, err = s.markers.SumSizeBytes(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sum bin size: %v", utils.ErrStoreUnavailable, err)
	}
	return count, totalBytes, nil
}
