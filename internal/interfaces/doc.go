// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help code agents understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - reconcile.Store: Availability snapshot persistence (internal/reconcile/reconciler.go)
//   - sync.BookmarkStore: Bookmarked book listing (internal/sync/orchestrator.go)
//   - sync.StatusStore: Per-user run progress rows (internal/sync/orchestrator.go)
//   - bookshelf.BookStore: Book and bookmark persistence (internal/bookshelf/service.go)
//   - scheduler.UserLister: Users with at least one bookmark (internal/scheduler/refresh.go)
//
// ## External Service Interfaces
//
//   - sync.Catalogue: Availability lookups against the library catalogue (internal/sync/orchestrator.go)
//   - bookshelf.TitleFetcher: Bibliographic record lookups (internal/bookshelf/service.go)
//   - catalogue.Searcher: Keyword title search (internal/catalogue/pager.go)
//
// ## Orchestration Interfaces
//
//   - bookshelf.Refresher: Single-book refresh priming (internal/bookshelf/service.go)
//   - sync.Continuer: Batch continuation scheduling (internal/sync/orchestrator.go)
//   - sync.Notifier: Newly-available alerts (internal/sync/notifier.go)
//
// # Adding a New Catalogue Backend
//
// To track a library system other than the default one:
//
//  1. Implement the catalogue surface in a new package
//
//     type OverdriveClient struct {
//         apiKey     string
//         httpClient *http.Client
//     }
//
//     func (c *OverdriveClient) GetAvailability(ctx context.Context, bid string) (*catalogue.AvailabilitySnapshot, error)
//     func (c *OverdriveClient) GetTitleDetails(ctx context.Context, bid string) (*catalogue.TitleDetails, error)
//
//     var _ sync.Catalogue = (*OverdriveClient)(nil)
//     var _ bookshelf.TitleFetcher = (*OverdriveClient)(nil)
//
//  2. Swap the client in entrypoint.go; error taxonomy must be preserved
//     (catalogue.ErrNotFound, catalogue.ErrRateLimited, catalogue.UpstreamError)
//     so the orchestrator's retry and removal behaviour carries over.
//
// # Adding a New Notifier
//
// To alert on newly available copies through a new channel:
//
//  1. Implement sync.Notifier in internal/sync/ or a new package
//
//     type TelegramNotifier struct {
//         token  string
//         chatID int64
//     }
//
//     func (n *TelegramNotifier) NewlyAvailable(bid string, items []entities.AvailabilityItem)
//
//     var _ sync.Notifier = (*TelegramNotifier)(nil)
//
//  2. Pass it to Orchestrator.SetNotifier in entrypoint.go
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., reading history):
//
//  1. Create sub-package: internal/database/history/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check:
//
//     var _ HistoryStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
