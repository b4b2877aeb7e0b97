package records

import (
	"github.com/iudanet/fitsync/internal/models"
)

// Patch частичное обновление тренировки. nil поле не меняется.
// id в Patch отсутствует: его нельзя переопределить.
type Patch struct {
	Type           *string
	Title          *string
	Notes          *string
	StartTime      *int64
	DurationSec    *float64
	DistanceM      *float64
	ElevationGainM *float64
	Route          *[]models.Point

	Samples *[]models.Sample
	Laps    *[]models.Lap
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Type == nil && p.Title == nil && p.Notes == nil && p.StartTime == nil &&
		p.DurationSec == nil && p.DistanceM == nil && p.ElevationGainM == nil &&
		p.Route == nil && p.Samples == nil && p.Laps == nil
}

func (p Patch) applyActivity(a *models.Activity) {
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.DurationSec != nil {
		a.DurationSec = *p.DurationSec
	}
	if p.DistanceM != nil {
		a.DistanceM = *p.DistanceM
	}
	if p.ElevationGainM != nil {
		a.ElevationGainM = *p.ElevationGainM
	}
	if p.Route != nil {
		a.Route = append([]models.Point(nil), (*p.Route)...)
	}
}

func (p Patch) applyDetails(d *models.ActivityDetails) {
	if p.Samples != nil {
		d.Samples = append([]models.Sample(nil), (*p.Samples)...)
	}
	if p.Laps != nil {
		d.Laps = append([]models.Lap(nil), (*p.Laps)...)
	}
}
