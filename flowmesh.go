// Package flowmesh provides a high-level façade over the flow package: it
// owns the shared handles (context store, config, logger, persister) and a
// middleware chain, and applies them to the composables it runs. Most
// applications interact with this package by:
//  1. Creating a Mesh via New() (optionally overriding the in-memory store)
//  2. Registering one or more composables under a name
//  3. Calling them (Call) or re-running part of a previous run (Resume)
//
// Composables can be built directly with the flow package; the façade only
// keeps setup concise. All defaults are safe for local development and
// testing.
package flowmesh

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/flowmesh/config"
	"github.com/hupe1980/flowmesh/contextstore"
	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/export"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/logging"
)

// Options configures the Mesh instance.
type Options struct {
	// Store is shared by every registered composable (defaults to in-memory).
	Store core.ContextStore
	// Config is shared by every registered composable (defaults to config.New()).
	Config core.Config
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// Middleware is installed on every node of a registered tree when set.
	Middleware []flow.Middleware
	// Persister receives a snapshot of every top-level call. Defaults to a
	// file persister in Config.StoreResult() when that is set.
	Persister core.Persister
	// Loader resolves previous runs for Resume. Defaults to Persister when it
	// also implements core.SnapshotLoader.
	Loader core.SnapshotLoader
}

// Mesh is the high-level façade aggregating shared handles and named composables.
type Mesh struct {
	opts Options

	mu    sync.RWMutex
	nodes map[string]flow.Node
}

// New creates a new Mesh instance with optional overrides.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Store:  contextstore.NewInMemoryStore(),
		Config: config.New(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Persister == nil && opts.Config != nil && opts.Config.StoreResult() != "" {
		p, err := export.NewFilePersister(opts.Config.StoreResult())
		if err != nil {
			opts.Logger.Warn("result storage disabled", "dir", opts.Config.StoreResult(), "error", err)
		} else {
			opts.Persister = p
		}
	}
	if opts.Loader == nil {
		if l, ok := opts.Persister.(core.SnapshotLoader); ok {
			opts.Loader = l
		}
	}
	return &Mesh{opts: opts, nodes: map[string]flow.Node{}}
}

// Store returns the shared context store.
func (m *Mesh) Store() core.ContextStore { return m.opts.Store }

// Attach binds n and its sub-units to the mesh's handles and middleware.
func (m *Mesh) Attach(n flow.Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil composable", flow.ErrInvalidOperation)
	}
	err := n.Flow().Configure(func(o *flow.Options) {
		o.Store = m.opts.Store
		o.Config = m.opts.Config
		o.Logger = m.opts.Logger
		if m.opts.Persister != nil {
			o.Persister = m.opts.Persister
		}
	})
	if err != nil {
		return err
	}
	if m.opts.Middleware != nil {
		n.Flow().Apply(func(c flow.Node) { c.Flow().UseMiddleware(m.opts.Middleware...) })
	}
	return nil
}

// Register attaches n and makes it callable under name.
func (m *Mesh) Register(name string, n flow.Node) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", flow.ErrInvalidOperation)
	}
	if err := m.Attach(n); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[name] = n
	return nil
}

// Load rebuilds a composable from its description and registers it.
func (m *Mesh) Load(name string, d *flow.Description) (flow.Node, error) {
	n, err := flow.Load(d)
	if err != nil {
		return nil, err
	}
	if err := m.Register(name, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Names returns the registered names in sorted order.
func (m *Mesh) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.nodes))
	for name := range m.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the composable registered under name.
func (m *Mesh) Get(name string) (flow.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[name]
	return n, ok
}

// Call runs the composable registered under name and returns the tracker of
// the run. The tracker is returned for failed runs as well.
func (m *Mesh) Call(ctx context.Context, name string, in flow.Input) (*flow.Run, error) {
	n, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: no composable registered as %q", flow.ErrInvalidOperation, name)
	}
	_, err := n.Flow().CallWith(ctx, in)
	return n.Flow().LastRun(), err
}

// ResumeOptions selects the part of a tree to re-execute.
type ResumeOptions struct {
	// From is the path of the first node to run again.
	From string
	// To is the path of the last node to run again.
	To string
}

// Resume runs the composable registered under name again, reusing the
// outputs recorded by the run runID outside the selected range. The tree
// needs middleware.SkipComponent for outputs to be reused.
func (m *Mesh) Resume(ctx context.Context, name, runID string, in flow.Input, optFns ...func(o *ResumeOptions)) (*flow.Run, error) {
	var opts ResumeOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if m.opts.Loader == nil {
		return nil, fmt.Errorf("%w: no snapshot loader configured", flow.ErrInvalidOperation)
	}
	if _, err := m.opts.Loader.Load(ctx, runID); err != nil {
		return nil, err
	}

	in = in.Clone()
	in.Kwargs[flow.KwFromRun] = runID
	if opts.From != "" {
		in.Kwargs[flow.KwFrom] = opts.From
	}
	if opts.To != "" {
		in.Kwargs[flow.KwTo] = opts.To
	}
	return m.Call(ctx, name, in)
}
