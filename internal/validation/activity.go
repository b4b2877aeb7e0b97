package validation

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/iudanet/fitsync/internal/models"
)

// ErrInvalid is matched by every validation failure via errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error describes a single rejected field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalid) true for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IDPattern определяет допустимый формат идентификатора записи
// Латинские буквы, цифры, '-', '_'; длина 1-64 (UUID проходит)
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const (
	// MaxTitleLen максимальная длина названия тренировки
	MaxTitleLen = 200
	// MinPassphraseLen минимальная длина пароля шифрования remote данных
	MinPassphraseLen = 12
)

// ValidateID проверяет идентификатор записи
func ValidateID(id string) error {
	if id == "" {
		return invalid("id", "cannot be empty")
	}
	if !IDPattern.MatchString(id) {
		return invalid("id", "%q may only contain letters, numbers, '-' and '_' (max 64)", id)
	}
	return nil
}

// ValidateActivity проверяет содержимое тренировки перед сохранением
func ValidateActivity(a *models.Activity) error {
	if a == nil {
		return invalid("activity", "cannot be nil")
	}
	if err := ValidateID(a.ID); err != nil {
		return err
	}
	if a.Type != "" && !slices.Contains(models.ActivityTypes, a.Type) {
		return invalid("type", "unknown activity type %q", a.Type)
	}
	if len(a.Title) > MaxTitleLen {
		return invalid("title", "must not exceed %d characters", MaxTitleLen)
	}
	if a.DurationSec < 0 {
		return invalid("duration_sec", "cannot be negative")
	}
	if a.DistanceM < 0 {
		return invalid("distance_m", "cannot be negative")
	}
	if a.Version < 0 {
		return invalid("version", "cannot be negative")
	}
	return nil
}

// ValidatePair проверяет связку activity + details: обе записи обязательны
// и должны иметь одинаковый ID.
func ValidatePair(a *models.Activity, d *models.ActivityDetails) error {
	if err := ValidateActivity(a); err != nil {
		return err
	}
	if d == nil {
		return invalid("details", "cannot be nil")
	}
	if d.ID != a.ID {
		return invalid("details.id", "%q does not match activity id %q", d.ID, a.ID)
	}
	return nil
}

// ValidateBatch проверяет пакет пар до любой записи в хранилище
func ValidateBatch(activities []*models.Activity, details []*models.ActivityDetails) error {
	if len(activities) != len(details) {
		return invalid("batch", "length mismatch: %d activities, %d details", len(activities), len(details))
	}
	seen := make(map[string]struct{}, len(activities))
	for i := range activities {
		if err := ValidatePair(activities[i], details[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if _, dup := seen[activities[i].ID]; dup {
			return invalid("batch", "duplicate id %q", activities[i].ID)
		}
		seen[activities[i].ID] = struct{}{}
	}
	return nil
}

// ValidatePassphrase проверяет минимальные требования к паролю шифрования
func ValidatePassphrase(passphrase string) error {
	if passphrase == "" {
		return invalid("passphrase", "cannot be empty")
	}
	if len(passphrase) < MinPassphraseLen {
		return invalid("passphrase", "must be at least %d characters long", MinPassphraseLen)
	}
	return nil
}
