package flow

// Clone returns an independent copy of the instance sharing its store,
// config, logger and middleware. Values are copied shallowly, sub-units are
// cloned recursively.
func (b *Base) Clone() (Node, error) {
	return b.clone(0)
}

func (b *Base) clone(depth int) (Node, error) {
	if depth > b.maxDepth {
		return nil, fieldError(b.TypeName(), "", ErrRecursion, "clone depth exceeds %d", b.maxDepth)
	}
	if b.schema == nil || b.schema.factory == nil {
		return nil, fieldError(b.TypeName(), "", ErrNotRegistered, "schema has no factory")
	}
	n := b.schema.factory()
	c := n.Flow()
	err := c.Init(b.schema, n, nil, func(o *Options) {
		o.Store = b.store
		o.Config = b.config
		o.Logger = b.logger
		o.Middleware = b.middleware
		o.Persister = b.persister
		o.MaxDepth = b.maxDepth
	})
	if err != nil {
		return nil, err
	}

	for k, v := range b.values {
		c.values[k] = v
	}
	for k, v := range b.versions {
		c.versions[k] = v
	}
	for k, tokens := range b.deps {
		cp := make(map[string]uint64, len(tokens))
		for dep, tok := range tokens {
			cp[dep] = tok
		}
		c.deps[k] = cp
	}
	for k, v := range b.runKwargs {
		c.runKwargs[k] = v
	}
	c.dynamic = append([]string(nil), b.dynamic...)
	c.isolated = b.isolated

	for name, child := range b.nodes {
		if child == nil {
			c.nodes[name] = nil
			continue
		}
		cc, err := child.Flow().clone(depth + 1)
		if err != nil {
			return nil, err
		}
		c.nodes[name] = cc
	}
	return n, nil
}
