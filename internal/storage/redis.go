package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"chimeraevo/internal/model"
)

const defaultRedisPrefix = "chimeraevo:"

// RedisStore shares runs between machines running sweeps. Runs and sweeps
// are JSON values; sorted sets scored by creation time index them.
type RedisStore struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) runKey(id string) string         { return s.prefix + "run:" + id }
func (s *RedisStore) sweepKey(id string) string       { return s.prefix + "sweep:" + id }
func (s *RedisStore) diagnosticsKey(id string) string { return s.prefix + "diagnostics:" + id }
func (s *RedisStore) sweepIndexKey() string           { return s.prefix + "sweeps" }

// runIndexKey names the sorted set of run ids, global or per sweep.
func (s *RedisStore) runIndexKey(sweepID string) string {
	if sweepID == "" {
		return s.prefix + "runs"
	}
	return s.prefix + "sweep:" + sweepID + ":runs"
}

func (s *RedisStore) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	data, err := EncodeRun(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	score := createdScore(run.CreatedAtUTC)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.runKey(run.ID), data, 0)
	pipe.ZAdd(ctx, s.runIndexKey(""), backend.Z{Score: score, Member: run.ID})
	if run.SweepID != "" {
		pipe.ZAdd(ctx, s.runIndexKey(run.SweepID), backend.Z{Score: score, Member: run.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save run to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	data, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, fmt.Errorf("get run from redis: %w", err)
	}
	run, err := DecodeRun(data)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *RedisStore) ListRuns(ctx context.Context, sweepID string) ([]model.RunRecord, error) {
	ids, err := s.client.ZRange(ctx, s.runIndexKey(sweepID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]model.RunRecord, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.runKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		run, err := DecodeRun([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", ids[i], err)
		}
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *RedisStore) SaveSweep(ctx context.Context, sweep model.SweepRecord) error {
	data, err := EncodeSweep(sweep)
	if err != nil {
		return fmt.Errorf("encode sweep: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sweepKey(sweep.ID), data, 0)
	pipe.ZAdd(ctx, s.sweepIndexKey(), backend.Z{Score: createdScore(sweep.CreatedAtUTC), Member: sweep.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save sweep to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) GetSweep(ctx context.Context, id string) (model.SweepRecord, bool, error) {
	data, err := s.client.Get(ctx, s.sweepKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return model.SweepRecord{}, false, nil
		}
		return model.SweepRecord{}, false, fmt.Errorf("get sweep from redis: %w", err)
	}
	sweep, err := DecodeSweep(data)
	if err != nil {
		return model.SweepRecord{}, false, fmt.Errorf("decode sweep %s: %w", id, err)
	}
	return sweep, true, nil
}

func (s *RedisStore) ListSweeps(ctx context.Context) ([]model.SweepRecord, error) {
	ids, err := s.client.ZRange(ctx, s.sweepIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	sweeps := make([]model.SweepRecord, 0, len(ids))
	for _, id := range ids {
		sweep, ok, err := s.GetSweep(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			sweeps = append(sweeps, sweep)
		}
	}
	sortSweeps(sweeps)
	return sweeps, nil
}

func (s *RedisStore) SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	data, err := EncodeGenerationDiagnostics(diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	if err := s.client.Set(ctx, s.diagnosticsKey(runID), data, 0).Err(); err != nil {
		return fmt.Errorf("save diagnostics to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	data, err := s.client.Get(ctx, s.diagnosticsKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get diagnostics from redis: %w", err)
	}
	diagnostics, err := DecodeGenerationDiagnostics(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode diagnostics %s: %w", runID, err)
	}
	return diagnostics, true, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// createdScore orders index members by creation time; unparsable stamps
// sort first.
func createdScore(createdAtUTC string) float64 {
	ts, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return 0
	}
	return float64(ts.UnixMilli())
}
