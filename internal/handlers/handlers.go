package handlers

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/game"
	"github.com/placechase/placechase-api/internal/leaderboard"
)

// MaxBodySize limits the size of request bodies to 64KB; every payload in
// this API is a handful of fields.
const MaxBodySize = 65536

type Config struct {
	Manager *game.Manager
	Store   *leaderboard.Store
	// MapsAPIKey is the credential loaded at startup, possibly empty.
	MapsAPIKey string
	Logger     *zap.Logger
}

type Handler struct {
	manager   *game.Manager
	store     *leaderboard.Store
	logger    *zap.SugaredLogger
	validator *validator.Validate

	// The map credential can be supplied after startup through the setup
	// endpoint, so access is guarded.
	credMu     sync.RWMutex
	mapsAPIKey string
}

func New(cfg Config) *Handler {
	return &Handler{
		manager:    cfg.Manager,
		store:      cfg.Store,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
		mapsAPIKey: cfg.MapsAPIKey,
	}
}
