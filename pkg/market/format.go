package market

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatMarketCap renders a numeric-looking market-cap string with a dollar
// prefix and thousands separators. Anything else (including the NotAvailable
// marker) passes through unchanged.
func FormatMarketCap(raw string) string {
	clean := strings.TrimSpace(raw)
	if clean == "" || clean == NotAvailable {
		return NotAvailable
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return clean
	}
	return "$" + humanize.Comma(n)
}
