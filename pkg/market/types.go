package market

import "time"

// NotAvailable is the in-band marker for fundamentals fields the upstream
// did not report. Downstream formatting passes it through unchanged.
const NotAvailable = "N/A"

// Quote is a point-in-time price snapshot for a symbol. A quote that could
// not be fetched is represented by absence (nil plus ErrUnavailable), never
// by a zero-valued Quote.
type Quote struct {
	Current       float64 // Latest traded price
	PreviousClose float64 // Previous session close
	Open          float64 // Session open
	High          float64 // Session high
	Low           float64 // Session low
	Change        float64 // Absolute change since previous close
	ChangePercent float64 // Percentage change since previous close
}

// Bar is one day's OHLCV candle.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a price history in ascending chronological order with no
// duplicate dates. Both upstream providers are normalized to this shape, so
// indicator code never branches on provider identity.
type Series struct {
	Bars []Bar
}

// Len reports the number of bars in the series.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series holds no data.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Closes returns the closing prices oldest to newest.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Latest returns the most recent bar. ok is false for an empty series.
func (s Series) Latest() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Tail returns the trailing n bars, or the whole series when shorter.
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s.Bars) == 0 {
		return Series{}
	}
	if n >= len(s.Bars) {
		return s
	}
	return Series{Bars: s.Bars[len(s.Bars)-n:]}
}

// Fundamentals is a normalized company-overview mapping. Every field a
// caller may ask for is present; missing upstream values carry NotAvailable.
type Fundamentals struct {
	Fields map[string]string
}

// Field returns the named value, or NotAvailable when absent or blank.
func (f Fundamentals) Field(name string) string {
	if f.Fields == nil {
		return NotAvailable
	}
	v, ok := f.Fields[name]
	if !ok || v == "" || v == "None" || v == "-" {
		return NotAvailable
	}
	return v
}

// NewsItem is a single headline from the primary provider's news endpoint.
type NewsItem struct {
	Headline string
	Source   string
	Time     time.Time
	URL      string
}
