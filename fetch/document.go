package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/datavis/shared"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// minPointCells is the number of cells a table row needs to describe a point.
	minPointCells = 3
)

var (
	// ErrNoTable is returned when a document has no table.
	ErrNoTable = errors.New("no table found in document")
)

// DocumentConfig represents the configuration for the document client.
type DocumentConfig struct {
	// Timeout is the http client timeout.
	Timeout time.Duration
}

// DocumentClient fetches published documents.
type DocumentClient struct {
	cfg   *DocumentConfig
	httpc *http.Client
}

// NewDocumentClient instantiates a new document client.
func NewDocumentClient(cfg *DocumentConfig) *DocumentClient {
	return &DocumentClient{
		cfg:   cfg,
		httpc: newHTTPClient(cfg.Timeout),
	}
}

// FetchDocument fetches the html document at the provided url.
func (c *DocumentClient) FetchDocument(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("document url cannot be an empty string")
	}

	body, err := get(ctx, c.httpc, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetching document: %w", err)
	}

	return string(body), nil
}

// findFirst returns the first element node of the provided type in document order.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, a); found != nil {
			return found
		}
	}

	return nil
}

// collect appends every descendant element node of the provided type to set, without
// descending into nested tables.
func collect(n *html.Node, a atom.Atom, set []*html.Node) []*html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}

		switch child.DataAtom {
		case a:
			set = append(set, child)
		case atom.Table:
			continue
		default:
			set = collect(child, a, set)
		}
	}

	return set
}

// text returns the trimmed text content of the provided node.
func text(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	return strings.TrimSpace(sb.String())
}

// parseCoordinate parses a non-negative grid coordinate.
func parseCoordinate(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("coordinate cannot be negative, got %d", v)
	}

	return v, nil
}

// ParseDocument parses grid points from the first table of the provided html document.
//
// The first table row is treated as a header. Each remaining row describes a point through its
// first three cells: x coordinate, glyph and y coordinate. Rows with fewer cells are skipped.
// Points are returned in document order.
func ParseDocument(r io.Reader) ([]shared.Point, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, ErrNoTable
	}

	rows := collect(table, atom.Tr, nil)
	if len(rows) == 0 {
		return []shared.Point{}, nil
	}

	points := make([]shared.Point, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		cells := collect(row, atom.Td, nil)
		if len(cells) < minPointCells {
			continue
		}

		x, err := parseCoordinate(text(cells[0]))
		if err != nil {
			return nil, fmt.Errorf("parsing x coordinate of row %d: %w", idx+1, err)
		}
		y, err := parseCoordinate(text(cells[2]))
		if err != nil {
			return nil, fmt.Errorf("parsing y coordinate of row %d: %w", idx+1, err)
		}

		points = append(points, shared.NewPoint(x, y, text(cells[1])))
	}

	return points, nil
}
