package ast

import (
	"fmt"

	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/queries"
	"github.com/jward/candyc/internal/query"
)

// Register installs the getAst query backed by p.
func Register(c *query.Context, p Provider) error {
	return query.Register(c, queries.GetAst, func(qc *query.Context, id ids.ResourceId) (*File, error) {
		f, err := p.GetAst(qc.Context(), id)
		if err != nil {
			return nil, fmt.Errorf("ast: load %s: %w", id, err)
		}
		if f == nil {
			return nil, fmt.Errorf("ast: load %s: provider returned no tree", id)
		}
		if f.Resource != id {
			return nil, fmt.Errorf("ast: load %s: provider returned the tree of %s", id, f.Resource)
		}
		return f, nil
	})
}

// Get returns the syntax tree of id.
func Get(c *query.Context, id ids.ResourceId) (*File, error) {
	return query.Call[*File](c, queries.GetAst, id)
}
