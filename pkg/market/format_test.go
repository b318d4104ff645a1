package market

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatMarketCap(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain integer", "2750000000000", "$2,750,000,000,000"},
		{"small value", "950", "$950"},
		{"whitespace trimmed", "  1000000 ", "$1,000,000"},
		{"not available passes through", NotAvailable, NotAvailable},
		{"empty reads not available", "", NotAvailable},
		{"non numeric passes through", "2.75T", "2.75T"},
		{"decimal passes through", "1234.5", "1234.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatMarketCap(tc.in))
		})
	}
}
