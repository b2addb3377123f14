package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"aquaquote/internal/appconfig"
	"aquaquote/internal/chainscfg"
	"aquaquote/internal/pairs"
	"aquaquote/internal/quotes"
	"aquaquote/internal/strategies"
	"aquaquote/internal/tokens"
)

// Server wires every component the HTTP surface needs. It holds no
// business logic of its own beyond request decoding/response shaping —
// every decision is made by the component it delegates to.
type Server struct {
	registry     *chainscfg.Registry
	chainState   *strategies.Store
	pairs        *pairs.Store
	tokens       *tokens.Store
	appconfig    *appconfig.Store
	orchestrator *quotes.Orchestrator
	logger       zerolog.Logger
}

// Deps is the constructor input for New.
type Deps struct {
	Registry     *chainscfg.Registry
	ChainState   *strategies.Store
	Pairs        *pairs.Store
	Tokens       *tokens.Store
	AppConfig    *appconfig.Store
	Orchestrator *quotes.Orchestrator
	Logger       zerolog.Logger
}

// New builds the chi.Router exposing every endpoint in §6. globalTimeout is
// read once at startup from appconfig's loaded value; later PUT
// /admin/config updates change appconfig's cache but not this already-
// built middleware chain, matching the teacher's pattern of resolving
// per-process settings once at wiring time.
func New(deps Deps, globalTimeout time.Duration) http.Handler {
	s := &Server{
		registry:     deps.Registry,
		chainState:   deps.ChainState,
		pairs:        deps.Pairs,
		tokens:       deps.Tokens,
		appconfig:    deps.AppConfig,
		orchestrator: deps.Orchestrator,
		logger:       deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recovery(s.logger))
	r.Use(requestLogging(s.logger))
	r.Use(globalDeadline(globalTimeout))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/chains", s.handleChains)
		r.Get("/metadata", s.handleMetadata)
		r.Post("/price", s.handlePrice)
		r.Post("/quote", s.handleQuote)
		r.Get("/quotes/{quoteId}", s.handleGetQuote)

		r.Get("/admin/pairs", s.handleListPairs)
		r.Post("/admin/pairs", s.handleUpsertPair)
		r.Get("/admin/strategies", s.handleListStrategies)
		r.Post("/admin/strategies", s.handleCreateStrategy)
		r.Post("/admin/strategies/{id}/activate", s.handleActivateStrategy)
		r.Put("/admin/config", s.handleUpdateConfig)
		r.Get("/admin/tokens", s.handleListTokens)
	})

	return r
}
