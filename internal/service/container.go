package service

import (
	"context"
	"time"

	"haytruco/internal/config"
	"haytruco/internal/service/admin"
	"haytruco/internal/service/ai"
	"haytruco/internal/service/match"
	"haytruco/internal/service/room"
	"haytruco/internal/service/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	AI      *ai.Manager
	Admin   *admin.Service
	Session *session.Service
	Room    *room.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	aiMgr := ai.NewManager(config.GlobalConfig.AI)
	sessions := session.NewService(db)

	return &Container{
		AI:      aiMgr,
		Admin:   admin.NewService(db),
		Session: sessions,
		Room:    room.NewService(aiMgr, sessions, rdb, matchConfig(config.GlobalConfig.Game)),
	}
}

func (c *Container) Start(ctx context.Context) error {
	return c.Admin.EnsureDefaultAdmin(ctx)
}

// matchConfig applies configured overrides on top of the pacing defaults.
func matchConfig(cfg config.GameConfig) match.Config {
	mc := match.DefaultConfig()
	if cfg.TurnDelayMs > 0 {
		mc.TurnDelay = time.Duration(cfg.TurnDelayMs) * time.Millisecond
	}
	if cfg.BetDelayMs > 0 {
		mc.BetResponseDelay = time.Duration(cfg.BetDelayMs) * time.Millisecond
	}
	if cfg.MaxTurns > 0 {
		mc.MaxTurns = cfg.MaxTurns
	}
	return mc
}
