package forum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ConnectRow is one requirement line of the connect page.
type ConnectRow struct {
	Project     string
	Current     string
	Requirement string
}

// ConnectInfo fetches and parses the connect page.
func (c *Client) ConnectInfo(ctx context.Context) ([]ConnectRow, error) {
	c.log.Infof("fetching connect info")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.connectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create connect request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("connect page returned status %d", resp.StatusCode)
	}
	return ParseConnect(resp.Body)
}

// ParseConnect extracts the rows of every table with at least three cells.
// Blank current or requirement cells read as "0".
func ParseConnect(r io.Reader) ([]ConnectRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connect page: %w", err)
	}

	var rows []ConnectRow
	doc.Find("table tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}
		rows = append(rows, ConnectRow{
			Project:     cellText(cells.Eq(0), ""),
			Current:     cellText(cells.Eq(1), "0"),
			Requirement: cellText(cells.Eq(2), "0"),
		})
	})
	return rows, nil
}

func cellText(s *goquery.Selection, blank string) string {
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return blank
	}
	return text
}

var connectHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var connectCellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderConnect formats rows as a bordered table.
func RenderConnect(rows []ConnectRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("项目", "当前", "要求").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return connectHeaderStyle
			}
			return connectCellStyle
		})
	for _, r := range rows {
		t.Row(r.Project, r.Current, r.Requirement)
	}
	return t.String()
}
