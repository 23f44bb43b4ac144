package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/variantlab/configcore/pkg/common"
	"github.com/variantlab/configcore/pkg/domain/integration"
	"gorm.io/gorm"
)

// Well-known setting keys.
const (
	KeySaveZeroPrice = "save_zero_price_configurations"
	KeyDashValues    = "values_can_contain_dashes"
	KeyLanguageCode  = "language_code"
	KeyRetryCount    = "api_retry_count"
	KeyRetryDelayMs  = "api_retry_delay_ms"
	KeyRetryStatuses = "api_retry_statuses"
)

const keyPattern = "setting:%s"

var ErrMalformedRetrySettings = errors.New("malformed retry settings")

// Store is the small string-keyed lookup service used for feature flags and
// retry-policy numbers.
//
//go:generate mockery --name=Store --dir=. --output=./mocks --filename=settings_store_mock.go --case=underscore --with-expecter
type Store interface {
	String(ctx context.Context, key, def string) string
	Bool(ctx context.Context, key string, def bool) bool
	Int(ctx context.Context, key string, def int) int
	RetryPolicy(ctx context.Context) (integration.RetryPolicy, error)
}

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	// RetryDefaults backs RetryPolicy for keys absent from the store.
	RetryDefaults integration.RetryPolicy
}

// settingRow is the persisted source of truth behind the redis cache.
type settingRow struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (settingRow) TableName() string {
	return "public.settings"
}

type store struct {
	client        *redis.Client
	db            *gorm.DB
	localCache    sync.Map
	ttl           time.Duration
	retryDefaults integration.RetryPolicy
}

// NewStore builds the settings store: values live in the settings table and
// are cached in redis and in process memory for SettingCacheTTL.
func NewStore(cfg Config, db *gorm.DB) Store {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &store{
		client:        client,
		db:            db,
		ttl:           common.SettingCacheTTL,
		retryDefaults: cfg.RetryDefaults,
	}
}

// NewStoreWithClient is used by tests to inject a mocked redis client.
func NewStoreWithClient(client *redis.Client) Store {
	return &store{
		client: client,
		ttl:    common.SettingCacheTTL,
	}
}

type cachedValue struct {
	value     string
	found     bool
	expiresAt time.Time
}

func (s *store) lookup(ctx context.Context, key string) (string, bool) {
	if raw, ok := s.localCache.Load(key); ok {
		cached, ok := raw.(cachedValue)
		if ok && time.Now().Before(cached.expiresAt) {
			return cached.value, cached.found
		}
		s.localCache.Delete(key)
	}

	value, err := s.client.Get(ctx, fmt.Sprintf(keyPattern, key)).Result()
	if err == nil {
		s.localCache.Store(key, cachedValue{value: value, found: true, expiresAt: time.Now().Add(s.ttl)})
		return value, true
	}
	if !errors.Is(err, redis.Nil) {
		// Redis trouble falls through to the table; nothing is cached.
		return s.fromTable(ctx, key, false)
	}
	return s.fromTable(ctx, key, true)
}

func (s *store) fromTable(ctx context.Context, key string, cache bool) (string, bool) {
	if s.db == nil {
		if cache {
			s.localCache.Store(key, cachedValue{found: false, expiresAt: time.Now().Add(s.ttl)})
		}
		return "", false
	}

	var row settingRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if cache && errors.Is(err, gorm.ErrRecordNotFound) {
			s.localCache.Store(key, cachedValue{found: false, expiresAt: time.Now().Add(s.ttl)})
		}
		return "", false
	}
	if cache {
		s.client.Set(ctx, fmt.Sprintf(keyPattern, key), row.Value, s.ttl)
		s.localCache.Store(key, cachedValue{value: row.Value, found: true, expiresAt: time.Now().Add(s.ttl)})
	}
	return row.Value, true
}

func (s *store) String(ctx context.Context, key, def string) string {
	if value, ok := s.lookup(ctx, key); ok {
		return value
	}
	return def
}

func (s *store) Bool(ctx context.Context, key string, def bool) bool {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func (s *store) Int(ctx context.Context, key string, def int) int {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

// RetryPolicy assembles the gateway retry policy from the store, starting
// from the configured defaults. Malformed numbers are a configuration
// error, not a silent default.
func (s *store) RetryPolicy(ctx context.Context) (integration.RetryPolicy, error) {
	policy := s.retryDefaults

	if raw, ok := s.lookup(ctx, KeyRetryCount); ok {
		count, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return integration.RetryPolicy{}, fmt.Errorf("%w: %s=%q", ErrMalformedRetrySettings, KeyRetryCount, raw)
		}
		policy.Count = count
	}

	if raw, ok := s.lookup(ctx, KeyRetryDelayMs); ok {
		delayMs, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return integration.RetryPolicy{}, fmt.Errorf("%w: %s=%q", ErrMalformedRetrySettings, KeyRetryDelayMs, raw)
		}
		policy.Delay = time.Duration(delayMs) * time.Millisecond
	}

	if raw, ok := s.lookup(ctx, KeyRetryStatuses); ok {
		statuses, err := ParseRetryStatuses(raw)
		if err != nil {
			return integration.RetryPolicy{}, fmt.Errorf("%w: %s=%q", ErrMalformedRetrySettings, KeyRetryStatuses, raw)
		}
		policy.Statuses = statuses
	}

	return policy, nil
}

// ParseRetryStatuses parses a comma-separated status-code list, e.g.
// "429,503". Empty segments are skipped.
func ParseRetryStatuses(raw string) ([]int, error) {
	var statuses []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid status code %q", part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
