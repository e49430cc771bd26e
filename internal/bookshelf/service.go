// Package bookshelf manages a user's tracked books: bookmarking a title
// pulls its catalogue record into the shared book table and primes its
// availability; removing the last bookmark drops the shared record again.
package bookshelf

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// TitleFetcher is the slice of the catalogue client the service needs.
type TitleFetcher interface {
	GetTitleDetails(ctx context.Context, bid string) (*catalogue.TitleDetails, error)
}

// BookStore persists books and bookmarks.
type BookStore interface {
	UpsertBook(book *entities.Book) error
	GetBook(bid string) (*entities.Book, error)
	AddBookmark(userID uint, bid string) error
	RemoveBookmark(userID uint, bid string) error
	IsBookmarked(userID uint, bid string) (bool, error)
}

// Refresher primes availability for a freshly bookmarked book.
type Refresher interface {
	RefreshOne(ctx context.Context, bid string) (bool, error)
}

// Service wires catalogue lookups to the bookmark relation.
type Service struct {
	catalogue TitleFetcher
	store     BookStore
	refresher Refresher
}

// NewService creates a bookshelf service. The refresher is optional; without
// it a new bookmark has no availability until the next refresh run.
func NewService(cat TitleFetcher, store BookStore, refresher Refresher) *Service {
	return &Service{catalogue: cat, store: store, refresher: refresher}
}

// Bookmark starts tracking a title for a user. The shared book record is
// created from the catalogue on first bookmark, then availability is fetched
// once so the user sees data immediately.
func (s *Service) Bookmark(ctx context.Context, userID uint, bid string) (*entities.Book, error) {
	already, err := s.store.IsBookmarked(userID, bid)
	if err != nil {
		return nil, fmt.Errorf("check bookmark: %w", err)
	}
	if already {
		book, err := s.store.GetBook(bid)
		if err != nil {
			return nil, fmt.Errorf("load book: %w", err)
		}
		return book, nil
	}

	details, err := s.catalogue.GetTitleDetails(ctx, bid)
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil, fmt.Errorf("book %s: %w", bid, err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch title details for %s: %w", bid, err)
	}

	book := &entities.Book{
		BID:         details.BID,
		Title:       details.Title,
		Author:      details.Author,
		PublishYear: details.PublishYear,
		Publisher:   details.Publisher,
		Subjects:    entities.JoinList(details.Subjects),
		ISBNs:       entities.JoinList(details.ISBNs),
	}
	if err := s.store.UpsertBook(book); err != nil {
		return nil, fmt.Errorf("store book %s: %w", bid, err)
	}
	if err := s.store.AddBookmark(userID, bid); err != nil {
		return nil, fmt.Errorf("add bookmark: %w", err)
	}

	if s.refresher != nil {
		if _, err := s.refresher.RefreshOne(ctx, bid); err != nil {
			// The bookmark stands; availability arrives with the next run.
			log.Printf("[BOOKSHELF] initial availability fetch for %s failed: %v", bid, err)
		}
	}

	return book, nil
}

// Unbookmark stops tracking a title. The shared book record and its
// availability rows go with the last bookmark.
func (s *Service) Unbookmark(userID uint, bid string) error {
	if err := s.store.RemoveBookmark(userID, bid); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}
