package records

import (
	"errors"
	"fmt"

	"github.com/iudanet/fitsync/internal/client/storage"
)

var (
	// ErrNotFound запись с указанным id отсутствует локально
	ErrNotFound = fmt.Errorf("record not found: %w", storage.ErrEntryNotFound)

	// ErrDeleted запись уже помечена как удаленная и не может быть изменена
	ErrDeleted = errors.New("record is deleted")

	// ErrStale локальная запись изменилась после снимка, на котором
	// основано решение о pull
	ErrStale = errors.New("local record changed since snapshot")
)
