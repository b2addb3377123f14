package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aquaquote/internal/appconfig"
	"aquaquote/internal/apperr"
	"aquaquote/internal/strategies"
)

func appconfigUpdateInput(body updateConfigDTO) appconfig.UpdateInput {
	return appconfig.UpdateInput{
		RequestTimeoutMs:   body.RequestTimeoutMs,
		GlobalTimeoutMs:    body.GlobalTimeoutMs,
		QuoteExpirySeconds: body.QuoteExpirySeconds,
	}
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainIDQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.pairs.List(chainID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pairs": recs})
}

type upsertPairDTO struct {
	ChainID int    `json:"chainId"`
	TokenA  string `json:"tokenA"`
	TokenB  string `json:"tokenB"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleUpsertPair(w http.ResponseWriter, r *http.Request) {
	var body upsertPairDTO
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.pairs.Upsert(body.ChainID, body.TokenA, body.TokenB, body.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainIDQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.chainState.List(chainID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"strategies": recs})
}

type createStrategyDTO struct {
	ChainID int             `json:"chainId"`
	Name    string          `json:"name"`
	Version int             `json:"version"`
	Params  json.RawMessage `json:"params,omitempty"`
	Hash    string          `json:"hash"`
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var body createStrategyDTO
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.chainState.Create(strategies.CreateInput{
		ChainID: body.ChainID,
		Name:    body.Name,
		Version: body.Version,
		Params:  body.Params,
		Hash:    body.Hash,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type activateStrategyDTO struct {
	ChainID int   `json:"chainId"`
	Paused  *bool `json:"paused,omitempty"`
}

func (s *Server) handleActivateStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body activateStrategyDTO
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.chainState.SetActive(body.ChainID, id); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Paused != nil {
		if err := s.chainState.SetPaused(body.ChainID, *body.Paused); err != nil {
			writeError(w, r, err)
			return
		}
	}

	state, err := s.chainState.GetChainState(body.ChainID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type updateConfigDTO struct {
	RequestTimeoutMs   *int  `json:"requestTimeoutMs,omitempty"`
	GlobalTimeoutMs    *int  `json:"globalTimeoutMs,omitempty"`
	QuoteExpirySeconds *int  `json:"quoteExpirySeconds,omitempty"`
	ChainID            *int  `json:"chainId,omitempty"`
	Paused             *bool `json:"paused,omitempty"`
}

// handleUpdateConfig updates the global runtime knobs and, when chainId is
// present, that chain's paused flag — the pause toggle is chain-level
// configuration and has no endpoint of its own in §6.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var body updateConfigDTO
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.appconfig.Update(appconfigUpdateInput(body))
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, "updating config", err))
		return
	}

	if body.ChainID != nil && body.Paused != nil {
		if err := s.chainState.SetPaused(*body.ChainID, *body.Paused); err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainIDQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.tokens.List(chainID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": recs})
}
