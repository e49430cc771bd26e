// Package catalogue provides a typed client for the upstream library
// catalogue REST API.
//
// The client classifies responses into success, ErrNotFound, ErrRateLimited
// and UpstreamError, and maps the loosely shaped upstream JSON into typed
// structures at this boundary. It performs no retries of its own so that
// single-book and bulk callers can apply different policies.
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shelftrack/shelftrack/internal/entities"
)

const (
	defaultBaseURL  = "https://openweb.nlb.gov.sg/api/v2/Catalogue"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 20

	availabilityLimit = 100
)

// Config holds catalogue client settings.
type Config struct {
	BaseURL string
	AppCode string
	APIKey  string
	Timeout time.Duration
}

// Client interfaces with the catalogue REST API.
type Client struct {
	baseURL    string
	appCode    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a catalogue client from the given config, filling in
// defaults for base URL and timeout.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appCode: cfg.AppCode,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AvailabilityItem is one physical copy of a title as reported upstream.
type AvailabilityItem struct {
	ItemNo     string
	BranchName string
	CallNumber string
	Status     entities.ItemStatus
	DueDate    *time.Time
}

// AvailabilitySnapshot is the full set of copies for one BID at fetch time.
// Zero items with a success status is a valid "no circulating copies" result.
type AvailabilitySnapshot struct {
	BID   string
	Items []AvailabilityItem
}

// TitleDetails is the catalogue's bibliographic record for one BID.
type TitleDetails struct {
	BID         string
	Title       string
	Author      string
	PublishYear string
	Publisher   string
	Subjects    []string
	ISBNs       []string
}

// SearchResult is one title in a search page.
type SearchResult struct {
	BID         string
	Title       string
	Author      string
	PublishYear string
	Format      string
}

// SearchPage is one page of search results.
type SearchPage struct {
	Results      []SearchResult
	TotalRecords int
	Offset       int
	HasMore      bool
}

// Upstream JSON shapes. Only the fields used are declared.
type (
	availabilityResponse struct {
		TotalRecords int                `json:"totalRecords"`
		Items        []availabilityItem `json:"items"`
	}

	availabilityItem struct {
		ItemID            string        `json:"itemId"`
		BRN               json.Number   `json:"brn"`
		CallNumber        string        `json:"callNumber"`
		Location          namedResource `json:"location"`
		TransactionStatus statusDetail  `json:"transactionStatus"`
	}

	namedResource struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}

	statusDetail struct {
		Name string `json:"name"`
		Date string `json:"date"`
	}

	titleResponse struct {
		BRN         json.Number `json:"brn"`
		Title       string      `json:"title"`
		Author      string      `json:"author"`
		PublishDate string      `json:"publishDate"`
		Publisher   stringList  `json:"publisher"`
		Subjects    []string    `json:"subjects"`
		ISBNs       []string    `json:"isbns"`
	}

	searchResponse struct {
		TotalRecords   int           `json:"totalRecords"`
		HasMoreRecords bool          `json:"hasMoreRecords"`
		Titles         []searchTitle `json:"titles"`
	}

	searchTitle struct {
		BRN         json.Number    `json:"brn"`
		Title       string         `json:"title"`
		Author      string         `json:"author"`
		PublishDate string         `json:"publishDate"`
		Format      *namedResource `json:"format"`
	}
)

// stringList tolerates upstream fields that are sometimes a string and
// sometimes an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*s = []string{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// GetAvailability fetches the current per-branch loan status of every copy of
// a title. An empty item list is returned as a valid snapshot, distinct from
// ErrNotFound.
func (c *Client) GetAvailability(ctx context.Context, bid string) (*AvailabilitySnapshot, error) {
	params := url.Values{}
	params.Set("BRN", bid)
	params.Set("Limit", strconv.Itoa(availabilityLimit))

	var resp availabilityResponse
	if err := c.get(ctx, "GetAvailabilityInfo", params, &resp); err != nil {
		return nil, err
	}

	snapshot := &AvailabilitySnapshot{BID: bid}
	for _, item := range resp.Items {
		snapshot.Items = append(snapshot.Items, mapAvailabilityItem(item))
	}
	return snapshot, nil
}

// GetTitleDetails fetches the bibliographic record for a title.
func (c *Client) GetTitleDetails(ctx context.Context, bid string) (*TitleDetails, error) {
	params := url.Values{}
	params.Set("BRN", bid)

	var resp titleResponse
	if err := c.get(ctx, "GetTitleDetails", params, &resp); err != nil {
		return nil, err
	}

	details := &TitleDetails{
		BID:         resp.BRN.String(),
		Title:       cleanTitle(resp.Title),
		Author:      resp.Author,
		PublishYear: resp.PublishDate,
		Subjects:    resp.Subjects,
		ISBNs:       resp.ISBNs,
	}
	if details.BID == "" {
		details.BID = bid
	}
	if len(resp.Publisher) > 0 {
		details.Publisher = resp.Publisher[0]
	}
	return details, nil
}

// SearchTitles runs a keyword search and returns one page of results.
func (c *Client) SearchTitles(ctx context.Context, query string, offset, pageSize int) (*SearchPage, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	params := url.Values{}
	params.Set("Keywords", query)
	params.Set("Limit", strconv.Itoa(pageSize))
	if offset > 0 {
		params.Set("Offset", strconv.Itoa(offset))
	}

	var resp searchResponse
	if err := c.get(ctx, "SearchTitles", params, &resp); err != nil {
		return nil, err
	}

	page := &SearchPage{
		TotalRecords: resp.TotalRecords,
		Offset:       offset,
		HasMore:      resp.HasMoreRecords,
	}
	for _, title := range resp.Titles {
		result := SearchResult{
			BID:         title.BRN.String(),
			Title:       cleanTitle(title.Title),
			Author:      title.Author,
			PublishYear: title.PublishDate,
		}
		if title.Format != nil {
			result.Format = title.Format.Name
		}
		page.Results = append(page.Results, result)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-App-Code", c.appCode)
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("malformed body: %v", err)}
	}
	return nil
}

func mapAvailabilityItem(item availabilityItem) AvailabilityItem {
	out := AvailabilityItem{
		ItemNo:     item.ItemID,
		BranchName: item.Location.Name,
		CallNumber: item.CallNumber,
		Status:     mapStatus(item.TransactionStatus.Name),
	}
	if out.Status.OnLoan() && item.TransactionStatus.Date != "" {
		if due, err := parseUpstreamDate(item.TransactionStatus.Date); err == nil {
			out.DueDate = &due
		}
	}
	return out
}

func mapStatus(name string) entities.ItemStatus {
	switch name {
	case "Available":
		return entities.StatusAvailable
	case "On Loan":
		return entities.StatusOnLoan
	case "In Transit", "In-Transit":
		return entities.StatusInTransit
	case "Reference Only", "For Reference Only":
		return entities.StatusReferenceOnly
	case "Reserved":
		return entities.StatusReserved
	case "":
		return entities.StatusUnknown
	default:
		return entities.ItemStatus(name)
	}
}

// parseUpstreamDate accepts the timestamp shapes seen from the catalogue and
// keeps the date portion only.
func parseUpstreamDate(raw string) (time.Time, error) {
	datePart := raw
	if idx := strings.Index(raw, "T"); idx > 0 {
		datePart = raw[:idx]
	}
	return time.Parse("2006-01-02", datePart)
}

// cleanTitle drops the trailing "/ author statement" the catalogue appends to
// title strings.
func cleanTitle(title string) string {
	if idx := strings.Index(title, " / "); idx >= 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), "/"))
}
