package models

// QuoteDerivativeResponse mirrors the provider's quote-derivative payload:
// a flat list of per-instrument items, each with quote metadata and an
// order-book block.
type QuoteDerivativeResponse struct {
	Stocks       []DerivativeStock `json:"stocks"`
	FutTimestamp string            `json:"fut_timestamp"`
	OptTimestamp string            `json:"opt_timestamp"`
}

type DerivativeStock struct {
	Metadata  DerivativeMetadata  `json:"metadata"`
	OrderBook DerivativeOrderBook `json:"marketDeptOrderBook"`
}

type DerivativeMetadata struct {
	InstrumentType    string `json:"instrumentType"`
	Identifier        string `json:"identifier"`
	ExpiryDate        string `json:"expiryDate"`
	OptionType        string `json:"optionType"`
	StrikePrice       Float  `json:"strikePrice"`
	LastPrice         Float  `json:"lastPrice"`
	Change            Float  `json:"change"`
	PChange           Float  `json:"pChange"`
	OpenPrice         Float  `json:"openPrice"`
	HighPrice         Float  `json:"highPrice"`
	LowPrice          Float  `json:"lowPrice"`
	ClosePrice        Float  `json:"closePrice"`
	PrevClose         Float  `json:"prevClose"`
	NumberOfContracts Int    `json:"numberOfContractsTraded"`
	TotalTurnover     Float  `json:"totalTurnover"`
}

// DerivativeOrderBook carries depth and trade statistics. The bid and ask
// arrays may be empty; callers default the best level to zero in that case.
type DerivativeOrderBook struct {
	Bid       []PriceLevel        `json:"bid"`
	Ask       []PriceLevel        `json:"ask"`
	TradeInfo DerivativeTradeInfo `json:"tradeInfo"`
	OtherInfo DerivativeOtherInfo `json:"otherInfo"`
}

type PriceLevel struct {
	Price    Float `json:"price"`
	Quantity Int   `json:"quantity"`
}

type DerivativeTradeInfo struct {
	TradedVolume     Int   `json:"tradedVolume"`
	Value            Float `json:"value"`
	VMAP             Float `json:"vmap"`
	PremiumTurnover  Float `json:"premiumTurnover"`
	OpenInterest     Int   `json:"openInterest"`
	ChangeInOI       Int   `json:"changeinOpenInterest"`
	PChangeInOI      Float `json:"pchangeinOpenInterest"`
	MarketLot        Int   `json:"marketLot"`
	FiveDayAvgVolume Float `json:"5DayAvgVol"`
}

type DerivativeOtherInfo struct {
	CombinedOI           Float `json:"combinedOI"`
	SettlementPrice      Float `json:"settlementPrice"`
	DailyVolatility      Float `json:"dailyvolatility"`
	AnnualisedVolatility Float `json:"annualisedVolatility"`
}
