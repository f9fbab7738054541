package services

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// pageSummary is what candidate building needs from a scraped page.
type pageSummary struct {
	Title       string
	Description string
	Links       []string
}

// summarizePage parses scraped HTML and pulls the title, the meta
// description, and absolute outbound http(s) links. Parse errors yield an
// empty summary; x/net/html tolerates most malformed markup anyway.
func summarizePage(baseURL, content string) pageSummary {
	var summary pageSummary

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return summary
	}

	base, _ := url.Parse(baseURL)
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if summary.Title == "" && n.FirstChild != nil {
					summary.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if summary.Description == "" && attrValue(n, "name") == "description" {
					summary.Description = strings.TrimSpace(attrValue(n, "content"))
				}
			case "a":
				if link := resolveLink(base, attrValue(n, "href")); link != "" {
					if _, ok := seen[link]; !ok {
						seen[link] = struct{}{}
						summary.Links = append(summary.Links, link)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return summary
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}

// organizationForURL derives a display organization from the URL host,
// preferring the trusted-domain table so known funders keep their exact
// domain name.
func organizationForURL(profile *Profile, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	for domain := range profile.TrustedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return domain
		}
	}
	return host
}
