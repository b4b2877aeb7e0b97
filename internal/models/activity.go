package models

// ActivityType константы для типов тренировок
const (
	ActivityTypeRun   = "run"
	ActivityTypeRide  = "ride"
	ActivityTypeWalk  = "walk"
	ActivityTypeHike  = "hike"
	ActivityTypeSwim  = "swim"
	ActivityTypeOther = "other"
)

// ActivityTypes lists every accepted activity type.
var ActivityTypes = []string{
	ActivityTypeRun,
	ActivityTypeRide,
	ActivityTypeWalk,
	ActivityTypeHike,
	ActivityTypeSwim,
	ActivityTypeOther,
}

// Point представляет точку маршрута.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Activity представляет одну записанную тренировку.
type Activity struct {
	VersionedRecord
	Type           string  `json:"type"`             // Type тип тренировки: "run", "ride", ...
	Title          string  `json:"title"`            // Title название, показывается пользователю
	Notes          string  `json:"notes,omitempty"`  // Notes заметки пользователя
	StartTime      int64   `json:"start_time"`       // StartTime начало тренировки, epoch ms
	DurationSec    float64 `json:"duration_sec"`     // DurationSec длительность в секундах
	DistanceM      float64 `json:"distance_m"`       // DistanceM дистанция в метрах
	ElevationGainM float64 `json:"elevation_gain_m"` // ElevationGainM набор высоты в метрах
	Route          []Point `json:"route,omitempty"`  // Route упрощенный трек для превью
}

// DisplayTitle returns the title shown in conflict notices.
func (a *Activity) DisplayTitle() string {
	return a.Title
}

// Clone создает глубокую копию тренировки
func (a *Activity) Clone() *Activity {
	c := *a
	if a.Route != nil {
		c.Route = make([]Point, len(a.Route))
		copy(c.Route, a.Route)
	}
	return &c
}

// Sample одна точка временного ряда тренировки.
type Sample struct {
	OffsetSec  float64 `json:"offset_sec"`
	Lat        float64 `json:"lat,omitempty"`
	Lon        float64 `json:"lon,omitempty"`
	ElevationM float64 `json:"elevation_m,omitempty"`
	HeartRate  int     `json:"heart_rate,omitempty"`
	Cadence    int     `json:"cadence,omitempty"`
	SpeedMS    float64 `json:"speed_ms,omitempty"`
}

// Lap описывает один круг (отрезок) тренировки.
type Lap struct {
	Index       int     `json:"index"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
	DistanceM   float64 `json:"distance_m"`
}

// ActivityDetails хранит тяжелые данные тренировки (samples, laps).
// ID всегда совпадает с ID родительской Activity.
type ActivityDetails struct {
	VersionedRecord
	Samples []Sample `json:"samples"`
	Laps    []Lap    `json:"laps"`
}

// Clone создает глубокую копию деталей
func (d *ActivityDetails) Clone() *ActivityDetails {
	c := *d
	if d.Samples != nil {
		c.Samples = make([]Sample, len(d.Samples))
		copy(c.Samples, d.Samples)
	}
	if d.Laps != nil {
		c.Laps = make([]Lap, len(d.Laps))
		copy(c.Laps, d.Laps)
	}
	return &c
}
