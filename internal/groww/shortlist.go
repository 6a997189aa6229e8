package groww

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"momentum-scalper/internal/model"
)

// Shortlist page URLs. These are public pages, fetched without auth and
// outside the API rate limiter.
const (
	topGainersURL     = "https://groww.in/markets/top-gainers?index=GIDXNIFTYTOTALMCAP"
	volumeShockersURL = "https://groww.in/markets/volume-shockers"
)

const shortlistUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ShortlistType selects which public listing backs the shortlist.
type ShortlistType string

const (
	ShortlistTopGainers     ShortlistType = "top-gainers"
	ShortlistVolumeShockers ShortlistType = "volume-shockers"
)

// ShortlistScraper extracts the candidate symbol universe from Groww's
// public listing pages. The pages are Next.js-rendered; the stock list is
// embedded as JSON in the __NEXT_DATA__ script tag.
// Implements model.ShortlistSource.
type ShortlistScraper struct {
	typ        ShortlistType
	httpClient *http.Client
	log        *slog.Logger
}

// NewShortlistScraper creates a scraper for the given listing type.
func NewShortlistScraper(typ ShortlistType, log *slog.Logger) *ShortlistScraper {
	if log == nil {
		log = slog.Default()
	}
	return &ShortlistScraper{
		typ:        typ,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Shortlist fetches and parses the listing page.
func (s *ShortlistScraper) Shortlist(ctx context.Context) ([]model.ShortlistEntry, error) {
	pageURL := topGainersURL
	if s.typ == ShortlistVolumeShockers {
		pageURL = volumeShockersURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", shortlistUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	entries, err := parseShortlistPage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("groww: parse shortlist page: %w", err)
	}
	s.log.Debug("shortlist fetched", slog.String("type", string(s.typ)), slog.Int("count", len(entries)))
	return entries, nil
}

// nextData mirrors the slice of the __NEXT_DATA__ payload we care about.
type nextData struct {
	Props struct {
		PageProps struct {
			Stocks []struct {
				CompanyName      string  `json:"companyName"`
				CompanyShortName string  `json:"companyShortName"`
				LTP              float64 `json:"ltp"`
				NSEScriptCode    string  `json:"nseScriptCode"`
			} `json:"stocks"`
		} `json:"pageProps"`
	} `json:"props"`
}

func parseShortlistPage(r io.Reader) ([]model.ShortlistEntry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	raw := findNextDataScript(doc)
	if raw == "" {
		return nil, fmt.Errorf("__NEXT_DATA__ script tag not found")
	}

	var nd nextData
	if err := json.Unmarshal([]byte(raw), &nd); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}

	stocks := nd.Props.PageProps.Stocks
	entries := make([]model.ShortlistEntry, 0, len(stocks))
	for _, st := range stocks {
		name := st.CompanyName
		if name == "" {
			name = st.CompanyShortName
		}
		if name == "" || st.NSEScriptCode == "" {
			continue
		}
		entries = append(entries, model.ShortlistEntry{NSESymbol: st.NSEScriptCode, Name: name})
	}
	return entries, nil
}

// findNextDataScript walks the document for <script id="__NEXT_DATA__">
// and returns its text content.
func findNextDataScript(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "script" {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == "__NEXT_DATA__" {
				var sb strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						sb.WriteString(c.Data)
					}
				}
				return sb.String()
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNextDataScript(c); found != "" {
			return found
		}
	}
	return ""
}
