package contextstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hupe1980/flowmesh/core"
)

// KVOptions configures a KVStore.
type KVOptions struct {
	// Bucket is the JetStream key/value bucket name.
	Bucket string
	// Storage selects memory or file storage for a newly created bucket.
	Storage jetstream.StorageType
	// Timeout bounds every individual bucket operation.
	Timeout time.Duration
	// Codec encodes values written to the bucket.
	Codec core.Codec
}

// DefaultKVOptions returns options for a memory backed bucket named "flowmesh_context".
func DefaultKVOptions() KVOptions {
	return KVOptions{
		Bucket:  "flowmesh_context",
		Storage: jetstream.MemoryStorage,
		Timeout: 5 * time.Second,
		Codec:   core.MsgpackCodec{},
	}
}

const (
	valuePrefix = "v"
	scopePrefix = "scope"
)

var b64 = base64.RawURLEncoding

// KVStore is a process-safe core.ContextStore backed by a NATS JetStream
// key/value bucket. Processes connected to the same server and bucket share
// one context.
type KVStore struct {
	bucket jetstream.KeyValue
	opts   KVOptions
}

// NewKVStore opens the configured bucket, creating it when missing, and makes
// sure the built-in scopes exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream, optFns ...func(o *KVOptions)) (*KVStore, error) {
	opts := DefaultKVOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	bucket, err := js.KeyValue(ctx, opts.Bucket)
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("open bucket %s: %w", opts.Bucket, err)
		}
		bucket, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  opts.Bucket,
			Storage: opts.Storage,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	s := &KVStore{bucket: bucket, opts: opts}
	if err := s.ensureBuiltins(); err != nil {
		return nil, err
	}

	return s, nil
}

// ProcessSafe implements core.ProcessSafe.
func (s *KVStore) ProcessSafe() bool { return true }

func (s *KVStore) applyTimeout() (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(context.Background(), s.opts.Timeout)
	}
	return context.Background(), func() {}
}

func scopeKey(scope string) string {
	return scopePrefix + ".s" + b64.EncodeToString([]byte(scope))
}

func valueKey(scope, key string) string {
	return valuePrefix + ".s" + b64.EncodeToString([]byte(scope)) + ".k" + b64.EncodeToString([]byte(key))
}

func parseValueKey(k string) (scope, key string, ok bool) {
	parts := strings.Split(k, ".")
	if len(parts) != 3 || parts[0] != valuePrefix || !strings.HasPrefix(parts[1], "s") || !strings.HasPrefix(parts[2], "k") {
		return "", "", false
	}
	sb, err := b64.DecodeString(parts[1][1:])
	if err != nil {
		return "", "", false
	}
	kb, err := b64.DecodeString(parts[2][1:])
	if err != nil {
		return "", "", false
	}
	return string(sb), string(kb), true
}

func (s *KVStore) ensureBuiltins() error {
	for _, scope := range []string{core.GlobalScope, core.ProgressScope} {
		if err := s.CreateScope(scope, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *KVStore) requireScope(scope string) error {
	if !s.HasScope(scope) {
		return fmt.Errorf("%w: %q", ErrScopeNotFound, scope)
	}
	return nil
}

// Set stores value under key in scope.
func (s *KVStore) Set(key string, value any, scope string) error {
	if err := s.requireScope(scope); err != nil {
		return err
	}
	b, err := s.opts.Codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	ctx, cancel := s.applyTimeout()
	defer cancel()
	if _, err := s.bucket.Put(ctx, valueKey(scope, key), b); err != nil {
		return fmt.Errorf("kv put %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key in scope.
func (s *KVStore) Get(key string, scope string) (any, bool, error) {
	if err := s.requireScope(scope); err != nil {
		return nil, false, err
	}
	ctx, cancel := s.applyTimeout()
	defer cancel()
	entry, err := s.bucket.Get(ctx, valueKey(scope, key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv get %q: %w", key, err)
	}
	v, err := s.opts.Codec.Unmarshal(entry.Value())
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// GetAll returns every value in scope.
func (s *KVStore) GetAll(scope string) (map[string]any, error) {
	if err := s.requireScope(scope); err != nil {
		return nil, err
	}
	dump, err := s.Dump()
	if err != nil {
		return nil, err
	}
	if m, ok := dump[scope]; ok {
		return m, nil
	}
	return map[string]any{}, nil
}

// CreateScope opens scope.
func (s *KVStore) CreateScope(scope string, existOK bool) error {
	ctx, cancel := s.applyTimeout()
	defer cancel()
	if _, err := s.bucket.Create(ctx, scopeKey(scope), []byte{1}); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			if existOK {
				return nil
			}
			return fmt.Errorf("%w: %q", ErrScopeExists, scope)
		}
		return fmt.Errorf("kv create scope %q: %w", scope, err)
	}
	return nil
}

// HasScope reports whether scope exists.
func (s *KVStore) HasScope(scope string) bool {
	ctx, cancel := s.applyTimeout()
	defer cancel()
	_, err := s.bucket.Get(ctx, scopeKey(scope))
	return err == nil
}

// Delete removes key from scope.
func (s *KVStore) Delete(key string, scope string) error {
	if err := s.requireScope(scope); err != nil {
		return err
	}
	ctx, cancel := s.applyTimeout()
	defer cancel()
	if err := s.bucket.Purge(ctx, valueKey(scope, key)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) keys() ([]string, error) {
	ctx, cancel := s.applyTimeout()
	defer cancel()
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	return keys, nil
}

// ClearAll purges every key of the bucket and recreates the built-in scopes.
func (s *KVStore) ClearAll() error {
	keys, err := s.keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		ctx, cancel := s.applyTimeout()
		err := s.bucket.Purge(ctx, k)
		cancel()
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("kv purge %q: %w", k, err)
		}
	}
	return s.ensureBuiltins()
}

// Dump returns all scopes with their values.
func (s *KVStore) Dump() (map[string]map[string]any, error) {
	keys, err := s.keys()
	if err != nil {
		return nil, err
	}
	out := map[string]map[string]any{}
	for _, k := range keys {
		if strings.HasPrefix(k, scopePrefix+".s") {
			sb, err := b64.DecodeString(strings.TrimPrefix(k, scopePrefix+".s"))
			if err == nil {
				if _, ok := out[string(sb)]; !ok {
					out[string(sb)] = map[string]any{}
				}
			}
			continue
		}
		scope, key, ok := parseValueKey(k)
		if !ok {
			continue
		}
		v, found, err := s.Get(key, scope)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if _, ok := out[scope]; !ok {
			out[scope] = map[string]any{}
		}
		out[scope][key] = v
	}
	return out, nil
}

// Logs returns the invocation record of path.
func (s *KVStore) Logs(path string) (core.NodeLog, bool, error) {
	return logs(s, path)
}
