package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// fileBackend stores config as nested YAML, addressed by dotted keys
// ("server.port" is port under server).
type fileBackend struct {
	path string
	k    *koanf.Koanf
}

func newFileBackend(path string) (*fileBackend, error) {
	b := &fileBackend{path: path, k: koanf.New(".")}
	if err := b.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return b, nil
		}
		slog.Warn("could not read config file, using default values", "path", path, "error", err)
		b.k = koanf.New(".")
	}
	return b, nil
}

func (b *fileBackend) save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := b.k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(b.path, data, 0o600)
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	if !b.k.Exists(key) {
		return "", false, nil
	}
	return b.k.String(key), true, nil
}

func (b *fileBackend) GetInt(key string) (int, bool, error) {
	if !b.k.Exists(key) {
		return 0, false, nil
	}
	switch val := b.k.Get(key).(type) {
	case int:
		return val, true, nil
	case int64:
		return int(val), true, nil
	case uint64:
		if val > math.MaxInt {
			return 0, true, fmt.Errorf("value %v for %s is out of range", val, key)
		}
		return int(val), true, nil
	case float64:
		if val < math.MinInt || val > math.MaxInt || val != math.Trunc(val) {
			return 0, true, fmt.Errorf("value %v for %s is not a valid integer or is out of range", val, key)
		}
		return int(val), true, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("invalid type for %s", key)
	}
}

func (b *fileBackend) SetString(key, val string) error {
	if err := b.k.Set(key, val); err != nil {
		return err
	}
	return b.save()
}

func (b *fileBackend) SetInt(key string, val int) error {
	if err := b.k.Set(key, val); err != nil {
		return err
	}
	return b.save()
}

func (b *fileBackend) Delete(key string) error {
	b.k.Delete(key)
	return b.save()
}
