package types

// RawNews is an unvalidated news row as it arrives from a source. Every field
// is text so file, feed and scrape sources share one validation path.
type RawNews struct {
	Headline  string `csv:"headline" json:"headline"`
	URL       string `csv:"url" json:"url"`
	Publisher string `csv:"publisher" json:"publisher"`
	Date      string `csv:"date" json:"date"`
	Stock     string `csv:"stock" json:"stock"`
}

// RawPrice is an unvalidated daily bar.
type RawPrice struct {
	Ticker string `csv:"ticker" json:"ticker"`
	Date   string `csv:"date" json:"date"`
	Open   string `csv:"open" json:"open"`
	High   string `csv:"high" json:"high"`
	Low    string `csv:"low" json:"low"`
	Close  string `csv:"close" json:"close"`
}
