// Package aggregate derives read-side views over a user's books and their
// availability records.
//
// Every function here is pure: inputs are the in-memory (books, items) pair
// the record store returned, and nothing is mutated.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// AllLibraries is the sentinel FilterByLibrary accepts to mean "no filter".
const AllLibraries = "all"

// LibraryCount is one branch with its number of currently available items.
type LibraryCount struct {
	Library string `json:"library"`
	Count   int    `json:"count"`
}

// NormalizeBranch strips the generic "Public Library" / "Library" suffixes
// from a branch name and trims the remainder. The longer suffix is tried
// first so "Jurong West Public Library" does not keep a dangling "Public".
func NormalizeBranch(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.Index(name, "Public Library"); idx >= 0 {
		name = name[:idx]
	} else if idx := strings.Index(name, "Library"); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// UniqueTitles returns the distinct titles across all bookmarked books,
// including books without a single availability record.
func UniqueTitles(books []entities.Book) []string {
	seen := make(map[string]struct{}, len(books))
	var titles []string
	for _, book := range books {
		if _, ok := seen[book.Title]; ok {
			continue
		}
		seen[book.Title] = struct{}{}
		titles = append(titles, book.Title)
	}
	sort.Strings(titles)
	return titles
}

// AvailableTitles returns the distinct titles with at least one item in
// Available status. A book with zero availability records never appears.
func AvailableTitles(books []entities.Book, items []entities.AvailabilityItem) []string {
	availableBIDs := make(map[string]struct{})
	for _, item := range items {
		if item.Status == entities.StatusAvailable {
			availableBIDs[item.BID] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var titles []string
	for _, book := range books {
		if _, ok := availableBIDs[book.BID]; !ok {
			continue
		}
		if _, ok := seen[book.Title]; ok {
			continue
		}
		seen[book.Title] = struct{}{}
		titles = append(titles, book.Title)
	}
	sort.Strings(titles)
	return titles
}

// PerLibraryCounts maps each normalized branch name to its count of
// currently available items, sorted by branch name ascending. Each available
// item counts toward exactly one branch.
func PerLibraryCounts(items []entities.AvailabilityItem) []LibraryCount {
	counts := countAvailableByBranch(items)

	out := make([]LibraryCount, 0, len(counts))
	for library, count := range counts {
		out = append(out, LibraryCount{Library: library, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Library < out[j].Library
	})
	return out
}

// RankedLibraryCounts returns branches ordered by available-item count
// descending, branch name ascending on ties, truncated to limit when
// limit > 0.
func RankedLibraryCounts(items []entities.AvailabilityItem, limit int) []LibraryCount {
	counts := countAvailableByBranch(items)

	out := make([]LibraryCount, 0, len(counts))
	for library, count := range counts {
		out = append(out, LibraryCount{Library: library, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Library < out[j].Library
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FilterByLibrary returns the availability records at the given branch
// (matched on normalized names) together with their parent books. The
// AllLibraries sentinel returns everything unfiltered.
func FilterByLibrary(books []entities.Book, items []entities.AvailabilityItem, library string) ([]entities.Book, []entities.AvailabilityItem) {
	if library == AllLibraries || library == "" {
		return books, items
	}

	want := NormalizeBranch(library)
	var matched []entities.AvailabilityItem
	matchedBIDs := make(map[string]struct{})
	for _, item := range items {
		if NormalizeBranch(item.BranchName) != want {
			continue
		}
		matched = append(matched, item)
		matchedBIDs[item.BID] = struct{}{}
	}

	var matchedBooks []entities.Book
	for _, book := range books {
		if _, ok := matchedBIDs[book.BID]; ok {
			matchedBooks = append(matchedBooks, book)
		}
	}
	return matchedBooks, matched
}

func countAvailableByBranch(items []entities.AvailabilityItem) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		if item.Status != entities.StatusAvailable {
			continue
		}
		counts[NormalizeBranch(item.BranchName)]++
	}
	return counts
}
