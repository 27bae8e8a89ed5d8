package booking

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Listing is one property card from a search results page, as displayed.
type Listing struct {
	Name    string
	Address string
	Price   string
	Score   string
	URL     string
	Image   string
}

// ParseListings extracts the property cards of a results page. Cards without
// a title are skipped. Relative links are resolved against base.
func ParseListings(r io.Reader, base *url.URL) ([]Listing, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var out []Listing
	walk(doc, func(n *html.Node) bool {
		if testID(n) != "property-card" {
			return true
		}
		if l, ok := parseCard(n, base); ok {
			out = append(out, l)
		}
		return false // cards do not nest
	})
	return out, nil
}

func parseCard(card *html.Node, base *url.URL) (Listing, bool) {
	var l Listing
	walk(card, func(n *html.Node) bool {
		switch testID(n) {
		case "title":
			if l.Name == "" {
				l.Name = text(n)
			}
			return false
		case "address":
			if l.Address == "" {
				l.Address = text(n)
			}
			return false
		case "price-and-discounted-price":
			if l.Price == "" {
				l.Price = text(n)
			}
			return false
		case "review-score":
			if l.Score == "" {
				l.Score = reviewScore(n)
			}
			return false
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if l.URL == "" {
					l.URL = resolve(base, attr(n, "href"))
				}
			case "img":
				if l.Image == "" {
					l.Image = resolve(base, attr(n, "src"))
				}
			}
		}
		return true
	})
	return l, l.Name != ""
}

// reviewScore prefers the text of the first child div, which holds the bare
// number; the full block also carries words like "Scored" and "Very good".
func reviewScore(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "div" {
			if s := text(c); s != "" {
				return s
			}
		}
	}
	return text(n)
}

// walk visits n and its descendants depth-first; fn returning false skips
// the children of the node it was called with.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func testID(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return attr(n, "data-testid")
}

// text joins the text nodes below n with single spaces.
func text(n *html.Node) string {
	var parts []string
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
			return false
		}
		if c.Type == html.TextNode {
			if s := strings.TrimSpace(c.Data); s != "" {
				parts = append(parts, s)
			}
		}
		return true
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}
