package flow

import (
	"fmt"
	"sort"

	"github.com/hupe1980/flowmesh/config"
	"github.com/hupe1980/flowmesh/contextstore"
	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/logging"
)

// DefaultMaxDepth bounds the nesting of sub-unit calls, descriptions and clones.
const DefaultMaxDepth = 100

// Options configures an instance. Zero values fall back to an in-memory
// context store, a default config and a no-op logger.
type Options struct {
	Store core.ContextStore
	// Config is shared by reference with every sub-unit.
	Config core.Config
	Logger logging.Logger
	// Middleware replaces the schema's chain when non-nil.
	Middleware []Middleware
	// Persister receives a snapshot at the end of every top-level call.
	Persister core.Persister
	MaxDepth  int
}

// Base is the runtime state every composable embeds. Its zero value is not
// usable; call Init (or build through Schema.New) first.
type Base struct {
	schema *Schema
	self   Node

	values   map[string]any
	nodes    map[string]Node
	versions map[string]uint64
	deps     map[string]map[string]uint64
	dynamic  []string

	runKwargs  map[string]any
	tempKwargs map[string]any

	middleware []Middleware
	handler    Handler

	store     core.ContextStore
	config    core.Config
	logger    logging.Logger
	persister core.Persister
	maxDepth  int

	isolated     bool
	initialized  bool
	initializing bool
	resolving    map[string]bool

	// transient run state
	inRun      bool
	prefix     string
	name       string
	runID      string
	depth      int
	childCalls map[string]int
	stamped    []*Base
	lastRun    *Run
}

// Flow returns b. Types embedding Base satisfy Node by implementing Run.
func (b *Base) Flow() *Base { return b }

// Init binds b to its schema and to self, the value embedding b, applies
// params (dotted keys allowed) and runs the initialization routine.
func (b *Base) Init(schema *Schema, self Node, params map[string]any, optFns ...func(o *Options)) error {
	if schema == nil {
		return fieldError("flow.Base", "", ErrInvalidOperation, "nil schema")
	}
	if self == nil || self.Flow() != b {
		return fieldError(schema.name, "", ErrInvalidOperation, "self must embed the initialized Base")
	}

	opts := Options{MaxDepth: DefaultMaxDepth}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = contextstore.NewInMemoryStore()
	}
	if opts.Config == nil {
		opts.Config = config.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	b.schema = schema
	b.self = self
	b.values = map[string]any{}
	b.nodes = map[string]Node{}
	b.versions = map[string]uint64{}
	b.deps = map[string]map[string]uint64{}
	b.runKwargs = map[string]any{}
	b.tempKwargs = map[string]any{}
	b.resolving = map[string]bool{}
	b.childCalls = map[string]int{}
	b.store = opts.Store
	b.config = opts.Config
	b.logger = opts.Logger
	b.persister = opts.Persister
	b.maxDepth = opts.MaxDepth
	b.middleware = schema.middleware
	if opts.Middleware != nil {
		b.middleware = opts.Middleware
	}

	if err := b.SetParams(params, true); err != nil {
		return err
	}
	return b.initialize()
}

// Configure replaces handles of an initialized instance and propagates the
// store, config and logger to its resolved sub-units.
func (b *Base) Configure(optFns ...func(o *Options)) error {
	opts := Options{
		Store:      b.store,
		Config:     b.config,
		Logger:     b.logger,
		Middleware: b.middleware,
		Persister:  b.persister,
		MaxDepth:   b.maxDepth,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store != nil {
		b.store = opts.Store
	}
	if opts.Config != nil {
		b.config = opts.Config
	}
	if opts.Logger != nil {
		b.logger = opts.Logger
	}
	if opts.MaxDepth > 0 {
		b.maxDepth = opts.MaxDepth
	}
	b.persister = opts.Persister
	b.UseMiddleware(opts.Middleware...)
	return b.initialize()
}

// initialize wires the store, config and logger into every resolved
// sub-unit and runs the schema's init hooks.
func (b *Base) initialize() error {
	if b.initializing {
		return nil
	}
	b.initializing = true
	defer func() { b.initializing = false }()

	b.propagate(map[*Base]bool{})
	for _, hook := range b.schema.onInit {
		if err := hook(b); err != nil {
			return err
		}
	}
	b.initialized = true
	return nil
}

func (b *Base) propagate(visited map[*Base]bool) {
	visited[b] = true
	for _, name := range b.resolvedNodes() {
		c := b.nodes[name].Flow()
		if visited[c] || c.isolated {
			continue
		}
		c.share(b)
		c.propagate(visited)
	}
}

func (b *Base) share(parent *Base) {
	b.store = parent.store
	b.config = parent.config
	b.logger = parent.logger
}

// resolvedNodes returns the names of sub-units that currently hold a value.
func (b *Base) resolvedNodes() []string {
	names := make([]string, 0, len(b.nodes))
	for name, n := range b.nodes {
		if n != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (b *Base) childOptions() func(o *Options) {
	return func(o *Options) {
		o.Store = b.store
		o.Config = b.config
		o.Logger = b.logger
		o.MaxDepth = b.maxDepth
	}
}

// Schema returns the schema the instance was initialized with.
func (b *Base) Schema() *Schema { return b.schema }

// Self returns the composable embedding b.
func (b *Base) Self() Node { return b.self }

// TypeName returns the registered schema name.
func (b *Base) TypeName() string {
	if b.schema == nil {
		return "flow.Base"
	}
	return b.schema.name
}

// Store returns the context store handle.
func (b *Base) Store() core.ContextStore { return b.store }

// Config returns the config handle.
func (b *Base) Config() core.Config { return b.config }

// Logger returns the logger handle.
func (b *Base) Logger() logging.Logger { return b.logger }

// Name returns the name assigned for the current call, empty for a root.
func (b *Base) Name() string { return b.name }

// Prefix returns the absolute path of the parent during a nested call.
func (b *Base) Prefix() string { return b.prefix }

// RunID returns the identifier of the active top-level call.
func (b *Base) RunID() string { return b.runID }

// InRun reports whether a call is active.
func (b *Base) InRun() bool { return b.inRun }

// Depth returns the nesting depth of the active call. The root is at depth 0.
func (b *Base) Depth() int { return b.depth }

// AbsPath returns the absolute path of the instance in the active call tree.
// The root is ".", its sub-units ".name", their sub-units ".name.child".
func (b *Base) AbsPath() string {
	switch {
	case b.prefix == "":
		return "."
	case b.prefix == ".":
		return "." + b.name
	default:
		return b.prefix + "." + b.name
	}
}

// Isolate stops the instance from inheriting the store, config and logger of
// the composables that use it.
func (b *Base) Isolate() { b.isolated = true }

// Isolated reports whether Isolate was called.
func (b *Base) Isolated() bool { return b.isolated }

// LastRun returns the tracker of the last completed top-level call or nil.
func (b *Base) LastRun() *Run { return b.lastRun }

// UseMiddleware replaces the middleware chain of this instance.
func (b *Base) UseMiddleware(mws ...Middleware) {
	b.middleware = append([]Middleware(nil), mws...)
	b.handler = nil
}

// Middleware returns the active middleware chain.
func (b *Base) Middleware() []Middleware { return append([]Middleware(nil), b.middleware...) }

// stamp positions a sub-unit in the active call tree. It is a no-op outside a call.
func (b *Base) stamp(name string, n Node) error {
	if !b.inRun || n == nil {
		return nil
	}
	c := n.Flow()
	depth := b.depth + 1
	if depth > b.maxDepth {
		return fieldError(b.TypeName(), name, ErrRecursion, "call depth %d exceeds %d", depth, b.maxDepth)
	}
	count := b.childCalls[name]
	b.childCalls[name] = count + 1
	assigned := name
	if count > 0 {
		assigned = fmt.Sprintf("%s[%d]", name, count)
	}
	c.prefix = b.AbsPath()
	c.name = assigned
	c.depth = depth
	c.runID = b.runID
	b.stamped = append(b.stamped, c)
	if !c.isolated {
		c.share(b)
	}
	return nil
}

// release clears the transient run state after a call, including the
// position of sub-units that were stamped but never called.
func (b *Base) release() {
	for _, c := range b.stamped {
		if !c.inRun && c.runID == b.runID {
			c.prefix, c.name, c.depth, c.runID = "", "", 0, ""
		}
	}
	b.stamped = nil
	clear(b.tempKwargs)
	b.inRun = false
	b.prefix = ""
	b.name = ""
	b.runID = ""
	b.depth = 0
	b.childCalls = map[string]int{}
}
