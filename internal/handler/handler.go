package handler

import (
	"sync"

	"github.com/go-telegram/bot"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/service"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot       *bot.Bot
	cfg       *config.Config
	sessions  *service.Sessions
	analytics *service.Analytics
	bible     *service.BibleClient
	gateway   *service.GatewayClient
	vector    *service.VectorClient
	explain   *service.ExplainClient

	// One orchestrator per chat: its in-flight guard covers one submission
	// pipeline, and each chat is its own pipeline.
	newOrchestrator func() *service.Orchestrator
	orchMu          sync.Mutex
	orchestrators   map[int64]*service.Orchestrator
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot             *bot.Bot
	Cfg             *config.Config
	Sessions        *service.Sessions
	Analytics       *service.Analytics
	Bible           *service.BibleClient
	Gateway         *service.GatewayClient
	Vector          *service.VectorClient
	Explain         *service.ExplainClient
	NewOrchestrator func() *service.Orchestrator
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:             deps.Bot,
		cfg:             deps.Cfg,
		sessions:        deps.Sessions,
		analytics:       deps.Analytics,
		bible:           deps.Bible,
		gateway:         deps.Gateway,
		vector:          deps.Vector,
		explain:         deps.Explain,
		newOrchestrator: deps.NewOrchestrator,
		orchestrators:   make(map[int64]*service.Orchestrator),
	}
}

func (h *Handler) orchestratorFor(chatID int64) *service.Orchestrator {
	h.orchMu.Lock()
	defer h.orchMu.Unlock()
	o, ok := h.orchestrators[chatID]
	if !ok {
		o = h.newOrchestrator()
		h.orchestrators[chatID] = o
	}
	return o
}
