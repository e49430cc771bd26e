package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/shelftrack/shelftrack/internal/bookshelf"
	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/database/availability"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/syncstatus"
	"github.com/shelftrack/shelftrack/internal/reconcile"
	"github.com/shelftrack/shelftrack/internal/scheduler"
	"github.com/shelftrack/shelftrack/internal/sync"
	"github.com/shelftrack/shelftrack/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Availability store implementations
var _ reconcile.Store = (*availability.Repository)(nil)

// Bookmark store implementations
var _ sync.BookmarkStore = (*books.Repository)(nil)
var _ bookshelf.BookStore = (*books.Repository)(nil)

// Status store implementations
var _ sync.StatusStore = (*syncstatus.Repository)(nil)

// User listing implementations
var _ scheduler.UserLister = (*books.Repository)(nil)

// =============================================================================
// Catalogue Access
// =============================================================================

var _ sync.Catalogue = (*catalogue.Client)(nil)
var _ bookshelf.TitleFetcher = (*catalogue.Client)(nil)
var _ catalogue.Searcher = (*catalogue.Client)(nil)

// =============================================================================
// Orchestration
// =============================================================================

var _ bookshelf.Refresher = (*sync.Orchestrator)(nil)
var _ sync.Continuer = (*tasks.Continuer)(nil)
