package table

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func readHTML(path, selector string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return ParseHTMLTable(doc, selector)
}

// ParseHTMLTable extracts the first table matching selector. The header is
// the first row containing <th> cells, or the first row when there are none.
func ParseHTMLTable(doc *goquery.Document, selector string) ([]string, [][]string, error) {
	if selector == "" {
		selector = "table"
	}
	tbl := doc.Find(selector).First()
	if tbl.Length() == 0 {
		return nil, nil, fmt.Errorf("no element matches %q", selector)
	}

	hasTH := tbl.Find("th").Length() > 0

	var header []string
	var records [][]string
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(c.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if header == nil {
			if !hasTH || tr.Find("th").Length() > 0 {
				header = cells
			}
			return
		}
		records = append(records, cells)
	})

	if header == nil {
		return nil, nil, fmt.Errorf("table %q has no rows", selector)
	}
	return header, records, nil
}
