// Package config loads typed configuration structs from the process
// environment, optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cache   sync.Map // reflect.Type -> value
	parseMu sync.Mutex

	envFilesLoaded sync.Once
)

// Load parses environment variables into v. Every struct type is parsed once
// per process; later calls return the cached copy.
//
// Env files listed in ENV_FILES (comma separated, default ".env") are loaded
// before the first parse. Missing files are ignored and variables already
// present in the environment win.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	envFilesLoaded.Do(loadEnvFiles)

	key := reflect.TypeFor[T]()
	if cached, ok := cache.Load(key); ok {
		*v = cached.(T)
		return nil
	}

	parseMu.Lock()
	defer parseMu.Unlock()

	if cached, ok := cache.Load(key); ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache.Store(key, parsed)
	*v = parsed
	return nil
}

// MustLoad works like Load but panics on failure. Use it for settings the
// service cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration %T: %v", *v, err))
	}
}

func loadEnvFiles() {
	files := strings.Split(os.Getenv("ENV_FILES"), ",")
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			f = ".env"
		}
		_ = godotenv.Load(f)
	}
}
