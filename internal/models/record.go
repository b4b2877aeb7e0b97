package models

// Названия коллекций в локальном хранилище и на remote backend.
const (
	CollectionActivities      = "activities"
	CollectionActivityDetails = "activity_details"
)

// VersionedRecord is the sync contract every stored entity carries.
// Version растет на единицу при каждом локальном изменении, LastModified
// хранит время записи в миллисекундах (epoch ms) по часам писателя.
type VersionedRecord struct {
	ID           string `json:"id"`            // ID неизменяемый идентификатор (UUID)
	Version      int64  `json:"version"`       // Version монотонно растущая версия записи
	LastModified int64  `json:"last_modified"` // LastModified время последней записи, epoch ms
	Synced       bool   `json:"synced"`        // Synced запись подтверждена хотя бы одним remote
	Deleted      bool   `json:"deleted"`       // Deleted флаг soft delete (tombstone)
}

// Versioned is implemented by every type that embeds VersionedRecord.
type Versioned interface {
	Meta() *VersionedRecord
}

// Meta returns the embedded sync metadata. Pointer receiver so callers can
// stamp fields in place.
func (r *VersionedRecord) Meta() *VersionedRecord {
	return r
}

// SameRevision reports whether both records describe the same write:
// equal version and equal modification timestamp.
func (r VersionedRecord) SameRevision(other VersionedRecord) bool {
	return r.Version == other.Version && r.LastModified == other.LastModified
}

// IsNewerThan reports whether r supersedes other when other is a settled
// (already synced) copy: a higher version, or the same version written
// strictly later.
func (r VersionedRecord) IsNewerThan(other VersionedRecord) bool {
	if r.Version != other.Version {
		return r.Version > other.Version
	}
	return r.LastModified > other.LastModified
}
