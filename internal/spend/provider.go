package spend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/adperf-monitor/internal/optimizer"
	"github.com/ignite/adperf-monitor/internal/pkg/logger"
)

// Provider serves pair spend data for exclusion impact estimation, caching
// warehouse reads in Redis. A nil redis client disables caching entirely.
type Provider struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
}

// NewProvider creates a spend provider with an optional Redis cache.
func NewProvider(source Source, rdb *redis.Client, ttl time.Duration) *Provider {
	return &Provider{source: source, redis: rdb, ttl: ttl}
}

// PairSpend returns spend data for two audiences, or nil when neither
// audience has any figures. Cache and warehouse problems on one audience
// degrade to absent data for that audience only.
func (p *Provider) PairSpend(ctx context.Context, accountID, audienceA, audienceB string) (*optimizer.SpendData, error) {
	figA, err := p.audienceFigures(ctx, accountID, audienceA)
	if err != nil {
		return nil, err
	}
	figB, err := p.audienceFigures(ctx, accountID, audienceB)
	if err != nil {
		return nil, err
	}

	if figA.Spend == nil && figA.CPA == nil && figB.Spend == nil && figB.CPA == nil {
		return nil, nil
	}

	return &optimizer.SpendData{
		SpendA: figA.Spend,
		SpendB: figB.Spend,
		CPAA:   figA.CPA,
		CPAB:   figB.CPA,
	}, nil
}

func (p *Provider) audienceFigures(ctx context.Context, accountID, audienceID string) (Figures, error) {
	key := fmt.Sprintf("spend:%s:%s", accountID, audienceID)

	if p.redis != nil {
		data, err := p.redis.Get(ctx, key).Bytes()
		if err == nil {
			var f Figures
			if err := json.Unmarshal(data, &f); err == nil {
				return f, nil
			}
			logger.Warn("corrupt spend cache entry, refetching", "key", key)
		} else if err != redis.Nil {
			// Cache trouble degrades to a warehouse read.
			logger.Warn("spend cache read failed", "key", key, "error", err)
		}
	}

	f, err := p.source.AudienceFigures(ctx, accountID, audienceID)
	if err != nil {
		return Figures{}, err
	}

	if p.redis != nil {
		data, _ := json.Marshal(f)
		if err := p.redis.Set(ctx, key, data, p.ttl).Err(); err != nil {
			logger.Warn("spend cache write failed", "key", key, "error", err)
		}
	}

	return f, nil
}
