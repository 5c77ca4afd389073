package flrtvc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

const downloadURLColumn = "Download URL"

var reFixURL = regexp.MustCompile(`^(http|https|ftp)://(aix.software.ibm.com|public.dhe.ibm.com)` +
	`/(aix/ifixes/.*?/|aix/efixes/security/.*?.tar)$`)

// ParseReport returns the distinct fix URLs of a compact report, in report order.
//
// The report is '|' delimited with a header row naming the columns. Only URLs pointing at
// an ifix directory or a security fix tar file on the IBM fix servers are kept.
func ParseReport(lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	rd := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	rd.Comma = '|'
	rd.FieldsPerRecord = -1
	rd.LazyQuotes = true

	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == downloadURLColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("report header has no %q column", downloadURLColumn)
	}

	seen := sets.New[string]()
	var urls []string
	for {
		row, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return urls, fmt.Errorf("read report row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		url := strings.TrimSpace(row[col])
		if !reFixURL.MatchString(url) || seen.Has(url) {
			continue
		}
		seen.Insert(url)
		urls = append(urls, url)
	}
	return urls, nil
}
