package candyc

import (
	"github.com/jward/candyc/internal/hir"
	"github.com/jward/candyc/internal/ids"
	"github.com/jward/candyc/internal/query"
	"github.com/jward/candyc/internal/store"
)

// Public type aliases for the internal types used in the Session API.

type QueryContext = query.Context
type Store = store.Store
type DeclarationId = ids.DeclarationId
type ModuleId = ids.ModuleId
type Declaration = hir.Declaration
type Type = hir.Type
