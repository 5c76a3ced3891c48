package room

import (
	"context"
	"sync"
	"time"

	"haytruco/internal/service/ai"
	"haytruco/internal/service/match"
	"haytruco/internal/service/session"
	appErr "haytruco/pkg/errors"
	"haytruco/pkg/logger"
	"haytruco/pkg/utils/random"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	roomCodeLength   = 6
	roomCodeTTL      = 24 * time.Hour
	roomResultTTL    = 24 * time.Hour
	createAttempts   = 5
	roomCodePrefix   = "haytruco:room:"
	roomResultSuffix = ":result"
)

// Service is the in-memory room registry. Rooms live for the duration of the
// process; the redis reservation keeps codes unique across instances and the
// result cache outlives the room itself.
type Service struct {
	ai       *ai.Manager
	sessions *session.Service
	rdb      *redis.Client
	cfg      match.Config

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewService(aiMgr *ai.Manager, sessions *session.Service, rdb *redis.Client, cfg match.Config) *Service {
	return &Service{
		ai:       aiMgr,
		sessions: sessions,
		rdb:      rdb,
		cfg:      cfg,
		rooms:    make(map[string]*Room),
	}
}

// Create allocates a fresh room under a short shareable code.
func (s *Service) Create(ctx context.Context) (*Room, error) {
	for i := 0; i < createAttempts; i++ {
		code := random.Code(roomCodeLength)
		if !s.reserveCode(ctx, code) {
			continue
		}

		s.mu.Lock()
		if _, taken := s.rooms[code]; taken {
			s.mu.Unlock()
			continue
		}
		rm := newRoom(code, s)
		s.rooms[code] = rm
		s.mu.Unlock()

		logger.Log.Info("room created", zap.String("roomID", code))
		return rm, nil
	}
	return nil, appErr.ErrRoomCodeTaken
}

func (s *Service) Get(id string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[id]
	if !ok {
		return nil, appErr.ErrRoomNotFound
	}
	return rm, nil
}

// Remove stops the room's match (if running) and drops it from the registry.
// The persisted session and the cached result stay behind.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	rm, ok := s.rooms[id]
	if ok {
		delete(s.rooms, id)
	}
	s.mu.Unlock()

	if !ok {
		return appErr.ErrRoomNotFound
	}

	rm.Stop()
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, roomCodePrefix+id).Err(); err != nil {
			logger.Log.Warn("failed to release room code", zap.String("roomID", id), zap.Error(err))
		}
	}
	logger.Log.Info("room removed", zap.String("roomID", id))
	return nil
}

// reserveCode claims the code across instances. Without redis, uniqueness
// falls back to the local map check.
func (s *Service) reserveCode(ctx context.Context, code string) bool {
	if s.rdb == nil {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, roomCodePrefix+code, "1", roomCodeTTL).Result()
	if err != nil {
		logger.Log.Warn("room code reservation failed, proceeding locally",
			zap.String("code", code), zap.Error(err))
		return true
	}
	return ok
}

func (s *Service) cacheResult(ctx context.Context, roomID string, payload []byte) {
	if s.rdb == nil {
		return
	}
	key := roomCodePrefix + roomID + roomResultSuffix
	if err := s.rdb.Set(ctx, key, payload, roomResultTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache match result", zap.String("roomID", roomID), zap.Error(err))
	}
}
