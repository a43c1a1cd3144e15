package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/snapsweep/media-service/internal/repositories"
	"github.com/snapsweep/media-service/internal/utils"
)

const seedMarkerCount = 12

// SeedTestMarkers fills the pending bin with synthetic markers so local and
// staging environments have something to preview and commit. Marking is
// idempotent, so re-running on an already-seeded DB is harmless.
func SeedTestMarkers(ctx context.Context, markers repositories.PendingMarkerRepository) error {
	existing, err := markers.Count(ctx)
	if err != nil {
		return fmt.Errorf("count existing markers: %w", err)
	}
	if existing > 0 {
		utils.Logger.Infof("seeding: %d markers already present; skipping", existing)
		return nil
	}

	for i := 0; i < seedMarkerCount; i++ {
		assetID := fmt.Sprintf("seed-%s", uuid.NewString())
		size := int64((i + 1) * 1_500_000)
		if err := markers.Mark(ctx, assetID, &size); err != nil {
			return fmt.Errorf("insert seed marker %s: %w", assetID, err)
		}
	}
	utils.Logger.Infof("seeding: inserted %d test markers", seedMarkerCount)
	return nil
}
