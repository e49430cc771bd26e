package entities

import (
	"strings"
	"time"
)

// Book holds the catalogue record for one title. Books are shared between
// users: the row is keyed by the upstream BID and created the first time any
// user bookmarks the title.
type Book struct {
	BID         string    `gorm:"column:bid;primaryKey;size:32" json:"bid"`
	Title       string    `gorm:"index;size:512" json:"title"`
	Author      string    `gorm:"size:256" json:"author"`
	PublishYear string    `gorm:"size:16" json:"publish_year,omitempty"`
	Publisher   string    `gorm:"size:256" json:"publisher,omitempty"`
	Subjects    string    `gorm:"type:text" json:"-"`
	ISBNs       string    `gorm:"column:isbns;type:text" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const listSeparator = " | "

// SubjectList splits the stored subject string into its parts.
func (b *Book) SubjectList() []string {
	return splitList(b.Subjects)
}

// ISBNList splits the stored ISBN string into its parts.
func (b *Book) ISBNList() []string {
	return splitList(b.ISBNs)
}

// JoinList serializes a list attribute for storage on a Book row.
func JoinList(items []string) string {
	return strings.Join(items, listSeparator)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}

// User is the owner of bookmarks. Identity and authentication are handled
// outside this service; only the row the bookmarks hang off lives here.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:100" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark links a user to a book they track. The CreatedAt ordering is the
// order a bulk refresh walks the user's books in.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_user_bid" json:"user_id"`
	BID       string    `gorm:"column:bid;size:32;index;uniqueIndex:idx_user_bid" json:"bid"`
	CreatedAt time.Time `json:"created_at"`
}
