package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// Cache хранит сериализованные результаты симуляций по ключу.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key строит ключ из пространства имен и SHA-256 от JSON-представления запроса.
// Одинаковые запросы дают одинаковый ключ, так как encoding/json сортирует ключи map.
func Key(namespace string, request interface{}) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(payload)
	return namespace + ":" + hex.EncodeToString(sum[:]), nil
}

// GetJSON читает значение и декодирует его в target. Возвращает false при промахе.
func GetJSON(ctx context.Context, c Cache, key string, target interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	payload, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return false, errors.Join(ErrCorrupted, err)
	}
	return true, nil
}

// SetJSON сериализует value и сохраняет его.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, payload)
}

var ErrCorrupted = errors.New("cached value is corrupted")
