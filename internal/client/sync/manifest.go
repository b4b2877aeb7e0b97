package sync

import (
	"fmt"
	"time"

	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/models"
	"github.com/iudanet/fitsync/internal/reconcile"
)

// buildManifest считает хеши обеих коллекций
func buildManifest(activities []*models.Activity, details []*models.ActivityDetails) (remote.Manifest, error) {
	actHash, err := reconcile.CollectionHash(activities)
	if err != nil {
		return remote.Manifest{}, fmt.Errorf("hash %s: %w", models.CollectionActivities, err)
	}
	detHash, err := reconcile.CollectionHash(details)
	if err != nil {
		return remote.Manifest{}, fmt.Errorf("hash %s: %w", models.CollectionActivityDetails, err)
	}

	return remote.Manifest{
		Collections: []remote.CollectionSummary{
			{Collection: models.CollectionActivities, ContentHash: actHash, Count: len(activities)},
			{Collection: models.CollectionActivityDetails, ContentHash: detHash, Count: len(details)},
		},
		AggregateHash: reconcile.AggregateHash(map[string]string{
			models.CollectionActivities:      actHash,
			models.CollectionActivityDetails: detHash,
		}),
		UpdatedAt: time.Now().UnixMilli(),
	}, nil
}

// manifestMatches сравнивает хеши коллекций. Отсутствующий manifest не
// совпадает ни с чем.
func manifestMatches(remoteM *remote.Manifest, local remote.Manifest) bool {
	if remoteM == nil {
		return false
	}
	for _, c := range local.Collections {
		if remoteM.Hash(c.Collection) != c.ContentHash {
			return false
		}
	}
	return true
}

func detailsList(m map[string]*models.ActivityDetails) []*models.ActivityDetails {
	out := make([]*models.ActivityDetails, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	return out
}
