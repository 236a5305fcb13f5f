package contextstore

import (
	"fmt"
	"sync"

	"github.com/hupe1980/flowmesh/core"
)

// SharedOptions configures a SharedStore.
type SharedOptions struct {
	// Codec encodes every value before it reaches the owner goroutine.
	Codec core.Codec
}

type opKind int

const (
	opSet opKind = iota
	opGet
	opGetAll
	opCreateScope
	opHasScope
	opDelete
	opClearAll
	opDump
)

type request struct {
	op      opKind
	key     string
	scope   string
	value   []byte
	existOK bool
	reply   chan response
}

type response struct {
	value []byte
	ok    bool
	all   map[string][]byte
	dump  map[string]map[string][]byte
	err   error
}

// SharedStore is a process-safe core.ContextStore. A single owner goroutine
// holds the encoded state; callers talk to it through a request channel and
// receive decoded copies, never references.
type SharedStore struct {
	codec     core.Codec
	requests  chan request
	done      chan struct{}
	closeOnce sync.Once
}

// NewSharedStore starts the owner goroutine. Call Close to stop it.
func NewSharedStore(optFns ...func(o *SharedOptions)) *SharedStore {
	opts := SharedOptions{
		Codec: core.GobCodec{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &SharedStore{
		codec:    opts.Codec,
		requests: make(chan request),
		done:     make(chan struct{}),
	}

	go s.serve()

	return s
}

// ProcessSafe implements core.ProcessSafe.
func (s *SharedStore) ProcessSafe() bool { return true }

// Close stops the owner goroutine. Further operations return ErrClosed.
func (s *SharedStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *SharedStore) serve() {
	scopes := newEncodedScopes()
	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			req.reply <- scopes.apply(req)
		}
	}
}

func (s *SharedStore) do(req request) response {
	req.reply = make(chan response, 1)
	select {
	case s.requests <- req:
		return <-req.reply
	case <-s.done:
		return response{err: ErrClosed}
	}
}

// Set stores an encoded copy of value under key in scope.
func (s *SharedStore) Set(key string, value any, scope string) error {
	b, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return s.do(request{op: opSet, key: key, scope: scope, value: b}).err
}

// Get returns a decoded copy of the value stored under key in scope.
func (s *SharedStore) Get(key string, scope string) (any, bool, error) {
	resp := s.do(request{op: opGet, key: key, scope: scope})
	if resp.err != nil || !resp.ok {
		return nil, false, resp.err
	}
	v, err := s.codec.Unmarshal(resp.value)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// GetAll returns decoded copies of every value in scope.
func (s *SharedStore) GetAll(scope string) (map[string]any, error) {
	resp := s.do(request{op: opGetAll, scope: scope})
	if resp.err != nil {
		return nil, resp.err
	}
	return s.decodeAll(resp.all)
}

// CreateScope opens scope.
func (s *SharedStore) CreateScope(scope string, existOK bool) error {
	return s.do(request{op: opCreateScope, scope: scope, existOK: existOK}).err
}

// HasScope reports whether scope exists.
func (s *SharedStore) HasScope(scope string) bool {
	return s.do(request{op: opHasScope, scope: scope}).ok
}

// Delete removes key from scope.
func (s *SharedStore) Delete(key string, scope string) error {
	return s.do(request{op: opDelete, key: key, scope: scope}).err
}

// ClearAll drops every scope and value.
func (s *SharedStore) ClearAll() error {
	return s.do(request{op: opClearAll}).err
}

// Dump returns decoded copies of all scopes.
func (s *SharedStore) Dump() (map[string]map[string]any, error) {
	resp := s.do(request{op: opDump})
	if resp.err != nil {
		return nil, resp.err
	}
	out := make(map[string]map[string]any, len(resp.dump))
	for scope, m := range resp.dump {
		decoded, err := s.decodeAll(m)
		if err != nil {
			return nil, err
		}
		out[scope] = decoded
	}
	return out, nil
}

// Logs returns the invocation record of path.
func (s *SharedStore) Logs(path string) (core.NodeLog, bool, error) {
	return logs(s, path)
}

func (s *SharedStore) decodeAll(m map[string][]byte) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, b := range m {
		v, err := s.codec.Unmarshal(b)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// encodedScopes is owned by the serve goroutine only.
type encodedScopes map[string]map[string][]byte

func newEncodedScopes() encodedScopes {
	return encodedScopes{
		core.GlobalScope:   {},
		core.ProgressScope: {},
	}
}

func (e encodedScopes) apply(req request) response {
	switch req.op {
	case opSet:
		m, ok := e[req.scope]
		if !ok {
			return response{err: fmt.Errorf("%w: %q", ErrScopeNotFound, req.scope)}
		}
		m[req.key] = req.value
		return response{}
	case opGet:
		m, ok := e[req.scope]
		if !ok {
			return response{err: fmt.Errorf("%w: %q", ErrScopeNotFound, req.scope)}
		}
		b, ok := m[req.key]
		return response{value: b, ok: ok}
	case opGetAll:
		m, ok := e[req.scope]
		if !ok {
			return response{err: fmt.Errorf("%w: %q", ErrScopeNotFound, req.scope)}
		}
		return response{all: copyEncoded(m)}
	case opCreateScope:
		if _, ok := e[req.scope]; ok {
			if req.existOK {
				return response{}
			}
			return response{err: fmt.Errorf("%w: %q", ErrScopeExists, req.scope)}
		}
		e[req.scope] = map[string][]byte{}
		return response{}
	case opHasScope:
		_, ok := e[req.scope]
		return response{ok: ok}
	case opDelete:
		m, ok := e[req.scope]
		if !ok {
			return response{err: fmt.Errorf("%w: %q", ErrScopeNotFound, req.scope)}
		}
		delete(m, req.key)
		return response{}
	case opClearAll:
		for k := range e {
			delete(e, k)
		}
		e[core.GlobalScope] = map[string][]byte{}
		e[core.ProgressScope] = map[string][]byte{}
		return response{}
	case opDump:
		dump := make(map[string]map[string][]byte, len(e))
		for scope, m := range e {
			dump[scope] = copyEncoded(m)
		}
		return response{dump: dump}
	default:
		return response{err: fmt.Errorf("unknown store operation %d", req.op)}
	}
}

func copyEncoded(m map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
