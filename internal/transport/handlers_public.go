package transport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aquaquote/internal/apperr"
	"aquaquote/internal/quotes"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": now(),
	})
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chains": s.registry.List(),
	})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainIDQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	chain, err := s.registry.Get(chainID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.chainState.GetChainState(chainID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"chainId":   chainID,
		"chainName": chain.Name,
		"maker":     chain.MakerAddress.Hex(),
		"executor":  chain.ExecutorAddress.Hex(),
		"paused":    state.Paused,
	}
	if state.ActiveStrategyID != nil {
		resp["activeStrategy"] = *state.ActiveStrategyID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var body priceRequestDTO
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	result, _, _, err := s.orchestrator.GetPrice(r.Context(), quotes.PriceRequest{
		ChainID:    body.ChainID,
		SellToken:  body.SellToken,
		BuyToken:   body.BuyToken,
		SellAmount: body.SellAmount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, priceResponseDTO{
		ChainID:         result.ChainID,
		SellToken:       result.SellToken.Hex(),
		BuyToken:        result.BuyToken.Hex(),
		SellAmount:      result.SellAmount,
		BuyAmount:       result.BuyAmount,
		PricingSnapshot: result.Pricing,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var body quoteRequestDTO
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.orchestrator.CreateQuote(r.Context(), quotes.QuoteRequest{
		PriceRequest: quotes.PriceRequest{
			ChainID:    body.ChainID,
			SellToken:  body.SellToken,
			BuyToken:   body.BuyToken,
			SellAmount: body.SellAmount,
		},
		Taker:     body.Taker,
		Recipient: body.Recipient,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResultDTO(result))
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "quoteId")
	rec, err := s.orchestrator.GetQuoteByID(quoteID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteRecordDTO(rec))
}

func parseChainIDQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("chainId")
	if raw == "" {
		return 0, apperr.New(apperr.InvalidRequest, "chainId query parameter is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Wrap(apperr.InvalidRequest, "chainId must be an integer", err)
	}
	return id, nil
}
