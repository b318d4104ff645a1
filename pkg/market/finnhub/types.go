package finnhub

// quoteResponse mirrors the /quote endpoint payload.
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

// candleResponse mirrors the /stock/candle endpoint payload. Status is "ok"
// when data is present and "no_data" otherwise.
type candleResponse struct {
	Open       []float64 `json:"o"`
	High       []float64 `json:"h"`
	Low        []float64 `json:"l"`
	Close      []float64 `json:"c"`
	Volume     []float64 `json:"v"`
	Timestamps []int64   `json:"t"`
	Status     string    `json:"s"`
}

// newsItem mirrors one entry of the /company-news endpoint payload.
type newsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Datetime int64  `json:"datetime"`
	URL      string `json:"url"`
}
