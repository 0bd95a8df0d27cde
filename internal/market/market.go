// Package market holds the normalized shapes shared by the fetch services,
// the query cache and the HTTP layer. Prices stay as text exactly as the
// upstream API sends them; parsing to numbers is left to consumers.
package market

// Access describes the data plan an upstream record is available under.
type Access struct {
	Global string `json:"global"`
	Plan   string `json:"plan"`
}

// Instrument is a tradable symbol as listed by the instrument endpoint.
type Instrument struct {
	Symbol   string  `json:"symbol" validate:"required"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Type     string  `json:"type"`
	Exchange string  `json:"exchange,omitempty"`
	MICCode  string  `json:"mic_code,omitempty"`
	Country  string  `json:"country,omitempty"`
	FIGICode string  `json:"figi_code,omitempty"`
	CFICode  string  `json:"cfi_code,omitempty"`
	ISIN     string  `json:"isin,omitempty"`
	CUSIP    string  `json:"cusip,omitempty"`
	Access   *Access `json:"access,omitempty"`
}

// SymbolMatch is one candidate returned by symbol search.
type SymbolMatch struct {
	Symbol           string  `json:"symbol" validate:"required"`
	InstrumentName   string  `json:"instrument_name"`
	Exchange         string  `json:"exchange"`
	MICCode          string  `json:"mic_code"`
	ExchangeTimezone string  `json:"exchange_timezone"`
	InstrumentType   string  `json:"instrument_type"`
	Country          string  `json:"country"`
	Currency         string  `json:"currency"`
	Access           *Access `json:"access,omitempty"`
}

// FiftyTwoWeek is the 52 week range block of a quote snapshot.
type FiftyTwoWeek struct {
	Low               string `json:"low"`
	High              string `json:"high"`
	LowChange         string `json:"low_change"`
	HighChange        string `json:"high_change"`
	LowChangePercent  string `json:"low_change_percent"`
	HighChangePercent string `json:"high_change_percent"`
	Range             string `json:"range"`
}

// QuoteSnapshot is the latest quote for a symbol.
type QuoteSnapshot struct {
	Symbol                string        `json:"symbol" validate:"required"`
	Name                  string        `json:"name"`
	Exchange              string        `json:"exchange"`
	MICCode               string        `json:"mic_code"`
	Currency              string        `json:"currency"`
	Datetime              string        `json:"datetime" validate:"required"`
	Timestamp             int64         `json:"timestamp" validate:"required"`
	LastQuoteAt           int64         `json:"last_quote_at"`
	Open                  string        `json:"open" validate:"required"`
	High                  string        `json:"high" validate:"required"`
	Low                   string        `json:"low" validate:"required"`
	Close                 string        `json:"close" validate:"required"`
	Volume                string        `json:"volume"`
	PreviousClose         string        `json:"previous_close,omitempty"`
	Change                string        `json:"change,omitempty"`
	PercentChange         string        `json:"percent_change,omitempty"`
	AverageVolume         string        `json:"average_volume,omitempty"`
	Rolling1dChange       string        `json:"rolling_1d_change,omitempty"`
	Rolling7dChange       string        `json:"rolling_7d_change,omitempty"`
	RollingChange         string        `json:"rolling_change,omitempty"`
	IsMarketOpen          *bool         `json:"is_market_open,omitempty"`
	FiftyTwoWeek          *FiftyTwoWeek `json:"fifty_two_week,omitempty"`
	ExtendedChange        string        `json:"extended_change,omitempty"`
	ExtendedPercentChange string        `json:"extended_percent_change,omitempty"`
	ExtendedPrice         string        `json:"extended_price,omitempty"`
	ExtendedTimestamp     string        `json:"extended_timestamp,omitempty"`
}
