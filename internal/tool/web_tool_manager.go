package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/smoldhq/smold/pkg/message"
)

const webFetchTimeout = 30 * time.Second

// WebToolManager provides the WebFetch tool, which downloads a page and
// converts its main content to markdown. Shell network fetchers are banned,
// so this is the only way the model reaches the network.
type WebToolManager struct {
	registry

	client *http.Client
}

// NewWebToolManager creates a web tool manager.
func NewWebToolManager() *WebToolManager {
	m := &WebToolManager{
		registry: newRegistry(),
		client:   &http.Client{Timeout: webFetchTimeout},
	}
	m.registerWebTools()
	return m
}

func (m *WebToolManager) registerWebTools() {
	m.RegisterTool("WebFetch", "Fetch a webpage over HTTP(S) and return its main content as markdown. Supply a specific URL; there is no search capability.",
		[]message.ToolArgument{
			{Name: "url", Description: "URL of the webpage to fetch", Required: true, Type: "string"},
		},
		m.handleWebFetch)
}

func (m *WebToolManager) handleWebFetch(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	urlStr, ok := args["url"].(string)
	if !ok || urlStr == "" {
		return message.NewToolResultError("url parameter is required"), nil
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("invalid URL format: %v", err)), nil
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return message.NewToolResultError("invalid URL scheme: must be http or https"), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Compatible Web Fetcher Bot)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := m.client.Do(req)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to fetch webpage: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return message.NewToolResultError(fmt.Sprintf("HTTP error %d: %s", resp.StatusCode, resp.Status)), nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to parse HTML: %v", err)), nil
	}

	return message.NewToolResultText(htmlToMarkdown(doc, parsedURL)), nil
}

// htmlToMarkdown extracts the main content of a page and renders it as
// markdown, preferring semantic content containers over the raw body.
func htmlToMarkdown(doc *goquery.Document, baseURL *url.URL) string {
	var result strings.Builder

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		result.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	if desc := strings.TrimSpace(doc.Find("meta[name='description']").AttrOr("content", "")); desc != "" {
		result.WriteString(fmt.Sprintf("*%s*\n\n", desc))
	}

	contentSelectors := []string{
		"main", "article", "[role='main']", ".main-content",
		".content", ".post-content", ".article-content", "#content",
	}

	rendered := false
	for _, selector := range contentSelectors {
		if elem := doc.Find(selector).First(); elem.Length() > 0 {
			renderElement(elem, &result, baseURL)
			rendered = true
			break
		}
	}
	if !rendered {
		doc.Find("nav, header, footer, .navigation, .nav, .sidebar, .menu").Remove()
		renderElement(doc.Find("body"), &result, baseURL)
	}

	return result.String()
}

// renderElement walks an HTML subtree and appends its markdown rendering.
func renderElement(selection *goquery.Selection, result *strings.Builder, baseURL *url.URL) {
	selection.Contents().Each(func(i int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			if text := strings.TrimSpace(s.Text()); text != "" {
				result.WriteString(text)
			}
			return
		}

		tagName := goquery.NodeName(s)
		switch tagName {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tagName[1] - '0')
			result.WriteString(fmt.Sprintf("\n%s %s\n\n", strings.Repeat("#", level), strings.TrimSpace(s.Text())))

		case "p":
			if text := strings.TrimSpace(s.Text()); text != "" {
				result.WriteString(text + "\n\n")
			}

		case "br":
			result.WriteString("\n")

		case "strong", "b":
			result.WriteString(fmt.Sprintf("**%s**", strings.TrimSpace(s.Text())))

		case "em", "i":
			result.WriteString(fmt.Sprintf("*%s*", strings.TrimSpace(s.Text())))

		case "code":
			result.WriteString(fmt.Sprintf("`%s`", strings.TrimSpace(s.Text())))

		case "pre":
			result.WriteString(fmt.Sprintf("\n```\n%s\n```\n\n", strings.TrimSpace(s.Text())))

		case "ul", "ol":
			result.WriteString("\n")
			s.Find("li").Each(func(j int, li *goquery.Selection) {
				marker := "-"
				if tagName == "ol" {
					marker = fmt.Sprintf("%d.", j+1)
				}
				result.WriteString(fmt.Sprintf("%s %s\n", marker, strings.TrimSpace(li.Text())))
			})
			result.WriteString("\n")

		case "a":
			href, exists := s.Attr("href")
			text := strings.TrimSpace(s.Text())
			if exists && text != "" {
				result.WriteString(fmt.Sprintf("[%s](%s)", text, resolveLink(href, baseURL)))
			} else {
				result.WriteString(text)
			}

		case "img":
			if src := s.AttrOr("src", ""); src != "" {
				result.WriteString(fmt.Sprintf("![%s](%s)", s.AttrOr("alt", "Image"), resolveLink(src, baseURL)))
			}

		case "blockquote":
			for _, line := range strings.Split(strings.TrimSpace(s.Text()), "\n") {
				if strings.TrimSpace(line) != "" {
					result.WriteString(fmt.Sprintf("> %s\n", strings.TrimSpace(line)))
				}
			}
			result.WriteString("\n")

		case "div", "span", "section", "article":
			renderElement(s, result, baseURL)

		case "script", "style", "noscript":
			// skip

		default:
			if text := strings.TrimSpace(s.Text()); text != "" {
				result.WriteString(text + " ")
			}
		}
	})
}

// resolveLink converts relative URLs to absolute ones against the page URL.
func resolveLink(href string, baseURL *url.URL) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if resolved, err := baseURL.Parse(href); err == nil {
		return resolved.String()
	}
	return href
}
