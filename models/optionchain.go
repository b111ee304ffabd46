package models

// OptionChainResponse mirrors the provider's option-chain payload. Each entry
// under records.data covers one strike/expiry pair and carries an optional CE
// and PE side; a side that is absent in the payload stays nil.
type OptionChainResponse struct {
	Records OptionChainRecords `json:"records"`
}

type OptionChainRecords struct {
	ExpiryDates []string            `json:"expiryDates"`
	Data        []OptionChainRecord `json:"data"`
	Timestamp   string              `json:"timestamp"`
	Underlying  Float               `json:"underlyingValue"`
}

type OptionChainRecord struct {
	StrikePrice Float      `json:"strikePrice"`
	ExpiryDate  string     `json:"expiryDate"`
	CE          *OptionLeg `json:"CE"`
	PE          *OptionLeg `json:"PE"`
}

// OptionLeg is one side (call or put) of a strike. The ticker comes from the
// leg's own underlying field, not from the enclosing record.
type OptionLeg struct {
	Underlying        string `json:"underlying"`
	Identifier        string `json:"identifier"`
	LastPrice         Float  `json:"lastPrice"`
	Change            Float  `json:"change"`
	PChange           Float  `json:"pChange"`
	TotalTradedVolume Int    `json:"totalTradedVolume"`
	BidQty            Int    `json:"bidQty"`
	BidPrice          Float  `json:"bidprice"`
	AskQty            Int    `json:"askQty"`
	AskPrice          Float  `json:"askPrice"`
	OpenPrice         Float  `json:"openPrice"`
	PrevClose         Float  `json:"prevClose"`
	LowPrice          Float  `json:"lowPrice"`
	HighPrice         Float  `json:"highPrice"`
	VWAP              Float  `json:"vwap"`
	TotalValue        Float  `json:"totalValue"`
	OpenInterest      Int    `json:"openInterest"`
	ChangeInOI        Int    `json:"changeinOpenInterest"`
	NumberOfContracts Int    `json:"numberOfContractsTraded"`
	CombinedOI        Float  `json:"combinedOI"`
	FiveDayAvgVolume  Float  `json:"5DayAvgVol"`
	ImpliedVolatility Float  `json:"impliedVolatility"`
}
