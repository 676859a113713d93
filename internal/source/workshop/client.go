package workshop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"rwm/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultBaseURL = "https://steamcommunity.com/workshop/browse/"

	itemScriptSelector = "#profileBlock > div > div.workshopBrowseItems > script"
	authorSelector     = "#profileBlock > div > div.workshopBrowseItems > div > div.workshopItemAuthorName.ellipsis > a"
)

var scriptJSONRe = regexp.MustCompile(`\{.+\}`)

// Client fetches and parses the workshop browse page
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a browse page client. An empty baseURL uses the
// public Steam Community page.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// SearchURL returns the browse page URL for a query
func (c *Client) SearchURL(query string) string {
	params := url.Values{}
	params.Set("appid", domain.WorkshopAppID)
	params.Set("searchtext", query)
	return c.baseURL + "?" + params.Encode()
}

// Search downloads the browse page for query and parses it
func (c *Client) Search(ctx context.Context, query string) (_ []domain.Candidate, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("workshop returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParsePage(resp.Body)
}

// itemJSON is the object embedded in each item's script block
type itemJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// ParsePage extracts the items listed on a browse page. Script blocks that
// don't carry a parseable item are skipped. Authors are listed separately on
// the page and are matched to items by position.
func ParsePage(r io.Reader) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogParse, err)
	}

	// Indexed by script position so authors line up even when a block is skipped
	var slots []*domain.Candidate
	doc.Find(itemScriptSelector).Each(func(_ int, s *goquery.Selection) {
		if c, ok := decodeScript(s.Text()); ok {
			slots = append(slots, &c)
			return
		}
		slots = append(slots, nil)
	})

	doc.Find(authorSelector).Each(func(i int, s *goquery.Selection) {
		if i >= len(slots) || slots[i] == nil {
			return
		}
		if name := strings.TrimSpace(s.Text()); name != "" {
			slots[i].Author = name
		}
	})

	items := make([]domain.Candidate, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			items = append(items, *c)
		}
	}
	return items, nil
}

func decodeScript(script string) (domain.Candidate, bool) {
	raw := scriptJSONRe.FindString(strings.TrimSpace(script))
	if raw == "" {
		return domain.Candidate{}, false
	}

	var item itemJSON
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return domain.Candidate{}, false
	}

	id, ok := domain.ParseWorkshopID(item.ID)
	if !ok {
		return domain.Candidate{}, false
	}

	return domain.Candidate{
		ID:          id,
		Title:       item.Title,
		Description: item.Description,
		Author:      item.Author,
	}, true
}
