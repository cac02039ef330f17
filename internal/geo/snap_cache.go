package geo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/redis/go-redis/v9"

	"github.com/example/dispatch-agent/internal/models"
)

// snapKeyPrecision gives ~5m geohash cells, below the displacement gate,
// so fixes that would snap to the same road point share a cache entry.
const snapKeyPrecision = 9

// SnapCache caches road-snap results in Redis keyed by the geohash cell
// of the raw fix. Lookups and writes are best-effort; Redis being down
// just means every fix hits the snap service.
type SnapCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapCache(addr, password string, ttl time.Duration) *SnapCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &SnapCache{client: c, ttl: ttl}
}

func (s *SnapCache) Get(ctx context.Context, raw models.Coord) (models.Coord, bool) {
	v, err := s.client.Get(ctx, snapKey(raw)).Result()
	if err != nil {
		return models.Coord{}, false
	}
	var snapped models.Coord
	if err := json.Unmarshal([]byte(v), &snapped); err != nil {
		return models.Coord{}, false
	}
	return snapped, true
}

func (s *SnapCache) Set(ctx context.Context, raw, snapped models.Coord) {
	b, err := json.Marshal(snapped)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, snapKey(raw), b, s.ttl).Err()
}

func (s *SnapCache) Close() error { return s.client.Close() }

func snapKey(c models.Coord) string {
	return "snap:" + geohash.EncodeWithPrecision(c.Lat, c.Lng, snapKeyPrecision)
}
