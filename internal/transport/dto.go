package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"aquaquote/internal/apperr"
	"aquaquote/internal/calldata"
	"aquaquote/internal/quotes"
)

// priceRequestDTO is POST /v1/price's body, and the shared prefix of
// POST /v1/quote's body.
type priceRequestDTO struct {
	ChainID    int    `json:"chainId"`
	SellToken  string `json:"sellToken"`
	BuyToken   string `json:"buyToken"`
	SellAmount string `json:"sellAmount"`
}

type quoteRequestDTO struct {
	priceRequestDTO
	Taker     string `json:"taker"`
	Recipient string `json:"recipient,omitempty"`
}

// decodeStrict decodes r's JSON body into v, rejecting unknown fields and
// trailing garbage, per §4.J "unknown fields are rejected".
func decodeStrict(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.Wrap(apperr.InvalidRequest, "reading request body", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.InvalidRequest, "malformed request body", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return apperr.New(apperr.InvalidRequest, "request body has trailing data")
	}
	return nil
}

type priceResponseDTO struct {
	ChainID         int         `json:"chainId"`
	SellToken       string      `json:"sellToken"`
	BuyToken        string      `json:"buyToken"`
	SellAmount      string      `json:"sellAmount"`
	BuyAmount       string      `json:"buyAmount"`
	PricingSnapshot interface{} `json:"pricingSnapshot"`
}

type strategySummaryDTO struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Hash    string `json:"hash"`
}

type transactionDTO struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

type pricingSummaryDTO struct {
	AsOfMs          int64    `json:"asOfMs"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Stale           bool     `json:"stale"`
	SourcesUsed     []string `json:"sourcesUsed"`
}

type quoteResponseDTO struct {
	QuoteID    string              `json:"quoteId"`
	ChainID    int                 `json:"chainId"`
	Maker      string              `json:"maker"`
	Taker      string              `json:"taker"`
	Recipient  string              `json:"recipient"`
	Executor   string              `json:"executor"`
	Strategy   strategySummaryDTO  `json:"strategy"`
	SellToken  string              `json:"sellToken"`
	BuyToken   string              `json:"buyToken"`
	SellAmount string              `json:"sellAmount"`
	BuyAmount  string              `json:"buyAmount"`
	FeeBps     int                 `json:"feeBps"`
	FeeAmount  string              `json:"feeAmount"`
	Expiry     int64               `json:"expiry"`
	Nonce      string              `json:"nonce"`
	TypedData  json.RawMessage     `json:"typedData"`
	Signature  string              `json:"signature"`
	Tx         transactionDTO      `json:"tx"`
	Pricing    pricingSummaryDTO   `json:"pricing"`
}

func txDTO(tx calldata.Transaction) transactionDTO {
	return transactionDTO{To: tx.To.Hex(), Data: hexutil.Encode(tx.Data), Value: tx.Value}
}

func quoteResultDTO(res *quotes.QuoteResult) quoteResponseDTO {
	return quoteResponseDTO{
		QuoteID:    res.QuoteID,
		ChainID:    res.ChainID,
		Maker:      res.Maker.Hex(),
		Taker:      res.Taker.Hex(),
		Recipient:  res.Recipient.Hex(),
		Executor:   res.Executor.Hex(),
		Strategy:   strategySummaryDTO(res.Strategy),
		SellToken:  res.SellToken.Hex(),
		BuyToken:   res.BuyToken.Hex(),
		SellAmount: res.SellAmount,
		BuyAmount:  res.BuyAmount,
		FeeBps:     res.FeeBps,
		FeeAmount:  res.FeeAmount,
		Expiry:     res.Expiry,
		Nonce:      res.Nonce,
		TypedData:  res.TypedData,
		Signature:  res.Signature,
		Tx:         txDTO(res.Tx),
		Pricing:    pricingSummaryDTO(res.Pricing),
	}
}

// quoteRecordDTO renders a persisted Record verbatim, per property 6
// ("getQuoteById returns exactly the record persisted at issuance").
func quoteRecordDTO(rec *quotes.Record) map[string]interface{} {
	return map[string]interface{}{
		"quoteId":           rec.QuoteID,
		"chainId":           rec.ChainID,
		"maker":             rec.Maker,
		"taker":             rec.Taker,
		"recipient":         rec.Recipient,
		"executor":          rec.Executor,
		"strategy":          strategySummaryDTO{ID: rec.StrategyID, Version: rec.StrategyVersion, Hash: rec.StrategyHash},
		"sellToken":         rec.SellToken,
		"buyToken":          rec.BuyToken,
		"sellAmount":        rec.SellAmount,
		"buyAmount":         rec.BuyAmount,
		"feeBps":            rec.FeeBps,
		"feeAmount":         rec.FeeAmount,
		"expiry":            rec.Expiry,
		"nonce":             rec.Nonce,
		"typedData":         json.RawMessage(rec.TypedData),
		"signature":         rec.Signature,
		"tx":                transactionDTO{To: rec.TxTo, Data: rec.TxData, Value: rec.TxValue},
		"status":            rec.Status,
		"pricing": pricingSummaryDTO{
			AsOfMs:          rec.PricingAsOfMs,
			ConfidenceScore: rec.PricingConfidence,
			Stale:           rec.PricingStale,
			SourcesUsed:     sourcesFromJSON(rec.PricingSources),
		},
		"createdAt": rec.CreatedAt,
	}
}

func sourcesFromJSON(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
