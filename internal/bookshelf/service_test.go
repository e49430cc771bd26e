package bookshelf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/entities"
)

type fakeFetcher struct {
	details map[string]*catalogue.TitleDetails
	calls   int
}

func (f *fakeFetcher) GetTitleDetails(_ context.Context, bid string) (*catalogue.TitleDetails, error) {
	f.calls++
	details, ok := f.details[bid]
	if !ok {
		return nil, catalogue.ErrNotFound
	}
	return details, nil
}

type fakeBookStore struct {
	books     map[string]*entities.Book
	bookmarks map[string]map[uint]bool
	removed   []string
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{
		books:     make(map[string]*entities.Book),
		bookmarks: make(map[string]map[uint]bool),
	}
}

func (s *fakeBookStore) UpsertBook(book *entities.Book) error {
	s.books[book.BID] = book
	return nil
}

func (s *fakeBookStore) GetBook(bid string) (*entities.Book, error) {
	book, ok := s.books[bid]
	if !ok {
		return nil, errors.New("record not found")
	}
	return book, nil
}

func (s *fakeBookStore) AddBookmark(userID uint, bid string) error {
	if s.bookmarks[bid] == nil {
		s.bookmarks[bid] = make(map[uint]bool)
	}
	s.bookmarks[bid][userID] = true
	return nil
}

func (s *fakeBookStore) RemoveBookmark(userID uint, bid string) error {
	if !s.bookmarks[bid][userID] {
		return errors.New("record not found")
	}
	delete(s.bookmarks[bid], userID)
	s.removed = append(s.removed, bid)
	return nil
}

func (s *fakeBookStore) IsBookmarked(userID uint, bid string) (bool, error) {
	return s.bookmarks[bid][userID], nil
}

type fakeRefresher struct {
	bids []string
	err  error
}

func (f *fakeRefresher) RefreshOne(_ context.Context, bid string) (bool, error) {
	f.bids = append(f.bids, bid)
	return f.err == nil, f.err
}

func TestBookmarkCreatesBookAndPrimesAvailability(t *testing.T) {
	fetcher := &fakeFetcher{details: map[string]*catalogue.TitleDetails{
		"14484799": {
			BID:      "14484799",
			Title:    "Python for data analysis",
			Author:   "McKinney, Wes",
			Subjects: []string{"Data mining"},
			ISBNs:    []string{"9781098104030"},
		},
	}}
	store := newFakeBookStore()
	refresher := &fakeRefresher{}

	svc := NewService(fetcher, store, refresher)

	book, err := svc.Bookmark(context.Background(), 10, "14484799")
	require.NoError(t, err)
	assert.Equal(t, "Python for data analysis", book.Title)
	assert.Equal(t, "Data mining", store.books["14484799"].Subjects)
	assert.True(t, store.bookmarks["14484799"][10])
	assert.Equal(t, []string{"14484799"}, refresher.bids)
}

func TestBookmarkAlreadyTrackedSkipsCatalogue(t *testing.T) {
	fetcher := &fakeFetcher{details: map[string]*catalogue.TitleDetails{}}
	store := newFakeBookStore()
	store.books["1"] = &entities.Book{BID: "1", Title: "Existing"}
	store.bookmarks["1"] = map[uint]bool{10: true}

	svc := NewService(fetcher, store, nil)

	book, err := svc.Bookmark(context.Background(), 10, "1")
	require.NoError(t, err)
	assert.Equal(t, "Existing", book.Title)
	assert.Zero(t, fetcher.calls)
}

func TestBookmarkUnknownBID(t *testing.T) {
	svc := NewService(&fakeFetcher{}, newFakeBookStore(), nil)

	_, err := svc.Bookmark(context.Background(), 10, "missing")
	assert.ErrorIs(t, err, catalogue.ErrNotFound)
}

func TestBookmarkSurvivesFailedInitialRefresh(t *testing.T) {
	fetcher := &fakeFetcher{details: map[string]*catalogue.TitleDetails{
		"1": {BID: "1", Title: "Flaky"},
	}}
	store := newFakeBookStore()
	refresher := &fakeRefresher{err: catalogue.ErrRateLimited}

	svc := NewService(fetcher, store, refresher)

	_, err := svc.Bookmark(context.Background(), 10, "1")
	require.NoError(t, err, "availability arrives with the next run instead")
	assert.True(t, store.bookmarks["1"][10])
}

func TestUnbookmark(t *testing.T) {
	store := newFakeBookStore()
	store.bookmarks["1"] = map[uint]bool{10: true}

	svc := NewService(&fakeFetcher{}, store, nil)

	require.NoError(t, svc.Unbookmark(10, "1"))
	assert.Equal(t, []string{"1"}, store.removed)

	assert.Error(t, svc.Unbookmark(10, "1"))
}
