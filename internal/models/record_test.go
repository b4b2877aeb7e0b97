package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionedRecord_IsNewerThan(t *testing.T) {
	tests := []struct {
		name  string
		r     VersionedRecord
		other VersionedRecord
		want  bool
	}{
		{
			name:  "higher version wins",
			r:     VersionedRecord{Version: 3, LastModified: 100},
			other: VersionedRecord{Version: 2, LastModified: 500},
			want:  true,
		},
		{
			name:  "lower version loses",
			r:     VersionedRecord{Version: 1, LastModified: 900},
			other: VersionedRecord{Version: 2, LastModified: 500},
			want:  false,
		},
		{
			name:  "same version later timestamp",
			r:     VersionedRecord{Version: 2, LastModified: 600},
			other: VersionedRecord{Version: 2, LastModified: 500},
			want:  true,
		},
		{
			name:  "same version earlier timestamp",
			r:     VersionedRecord{Version: 2, LastModified: 400},
			other: VersionedRecord{Version: 2, LastModified: 500},
			want:  false,
		},
		{
			name:  "same revision",
			r:     VersionedRecord{Version: 2, LastModified: 500},
			other: VersionedRecord{Version: 2, LastModified: 500},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.IsNewerThan(tt.other))
		})
	}
}

func TestVersionedRecord_MetaIsMutable(t *testing.T) {
	a := &Activity{VersionedRecord: VersionedRecord{ID: "act-1"}}

	var v Versioned = a
	v.Meta().Version = 7
	v.Meta().Synced = true

	assert.Equal(t, int64(7), a.Version)
	assert.True(t, a.Synced)
}

func TestActivity_JSONFieldNames(t *testing.T) {
	a := &Activity{
		VersionedRecord: VersionedRecord{ID: "act-1", Version: 2, LastModified: 1000, Deleted: true},
		Type:            ActivityTypeRun,
		Title:           "Morning run",
		DistanceM:       5000,
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	// Метаданные должны лежать на верхнем уровне объекта, а не во вложенном поле
	assert.Equal(t, "act-1", raw["id"])
	assert.Equal(t, float64(2), raw["version"])
	assert.Equal(t, float64(1000), raw["last_modified"])
	assert.Equal(t, true, raw["deleted"])
	assert.Equal(t, false, raw["synced"])
	assert.Equal(t, "Morning run", raw["title"])
	assert.NotContains(t, raw, "VersionedRecord")
}

func TestActivity_Clone(t *testing.T) {
	orig := &Activity{
		VersionedRecord: VersionedRecord{ID: "act-1"},
		Route:           []Point{{Lat: 1, Lon: 2}},
	}

	c := orig.Clone()
	c.Route[0].Lat = 99
	c.Title = "changed"

	assert.Equal(t, float64(1), orig.Route[0].Lat)
	assert.Empty(t, orig.Title)
}

func TestActivityDetails_Clone(t *testing.T) {
	orig := &ActivityDetails{
		VersionedRecord: VersionedRecord{ID: "act-1"},
		Samples:         []Sample{{OffsetSec: 1, HeartRate: 120}},
		Laps:            []Lap{{Index: 0, DistanceM: 1000}},
	}

	c := orig.Clone()
	c.Samples[0].HeartRate = 180
	c.Laps[0].DistanceM = 1

	assert.Equal(t, 120, orig.Samples[0].HeartRate)
	assert.Equal(t, float64(1000), orig.Laps[0].DistanceM)
}
