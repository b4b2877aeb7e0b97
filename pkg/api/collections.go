package api

import "encoding/json"

// CollectionResponse содержимое коллекции целиком
type CollectionResponse struct {
	Collection string            `json:"collection"`
	Items      []json.RawMessage `json:"items"`
	UpdatedAt  int64             `json:"updated_at"` // epoch ms последней записи, 0 если коллекции нет
}

// CollectionRequest полностью заменяет содержимое коллекции
type CollectionRequest struct {
	Items []json.RawMessage `json:"items"`
}

// WriteResponse ответ на запись коллекции
type WriteResponse struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
	UpdatedAt  int64  `json:"updated_at"`
}

// CollectionSummary хеш содержимого одной коллекции
type CollectionSummary struct {
	Collection  string `json:"collection"`
	ContentHash string `json:"content_hash"`
	Count       int    `json:"count"`
}

// Manifest сводка по всем коллекциям backend'а. Позволяет пропустить
// синхронизацию, если содержимое не изменилось.
type Manifest struct {
	Collections   []CollectionSummary `json:"collections"`
	AggregateHash string              `json:"aggregate_hash"`
	UpdatedAt     int64               `json:"updated_at"`
}

// Hash возвращает хеш коллекции или "" если ее нет в manifest
func (m *Manifest) Hash(collection string) string {
	if m == nil {
		return ""
	}
	for _, c := range m.Collections {
		if c.Collection == collection {
			return c.ContentHash
		}
	}
	return ""
}
