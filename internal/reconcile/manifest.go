package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/iudanet/fitsync/internal/crypto"
)

// volatileFields не участвуют в content hash: они меняются без изменения
// содержимого записи.
var volatileFields = []string{"last_modified", "synced"}

type hashEntry struct {
	key       string
	canonical []byte
}

// CollectionHash вычисляет стабильный хеш содержимого коллекции.
// Каждый элемент сериализуется в JSON, из него удаляются volatile поля,
// элементы сортируются по id, результат сериализуется детерминированно
// (ключи объектов по алфавиту, числа без изменений) и хешируется SHA256.
// Порядок входных элементов на результат не влияет.
func CollectionHash[T any](items []T) (string, error) {
	entries := make([]hashEntry, 0, len(items))

	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return "", fmt.Errorf("failed to marshal item %d: %w", i, err)
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()

		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return "", fmt.Errorf("item %d is not a JSON object: %w", i, err)
		}
		if obj == nil {
			continue
		}

		for _, f := range volatileFields {
			delete(obj, f)
		}

		// encoding/json сортирует ключи map, json.Number пишется как есть
		canonical, err := json.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("failed to canonicalize item %d: %w", i, err)
		}

		key, _ := obj["id"].(string)
		entries = append(entries, hashEntry{key: key, canonical: canonical})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return bytes.Compare(entries[i].canonical, entries[j].canonical) < 0
	})

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e.canonical)
	}
	buf.WriteByte(']')

	return crypto.Digest(buf.Bytes()), nil
}

// AggregateHash объединяет хеши коллекций в один хеш всего набора данных.
func AggregateHash(hashes map[string]string) string {
	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(hashes[name])
		sb.WriteByte('\n')
	}
	return crypto.Digest([]byte(sb.String()))
}
