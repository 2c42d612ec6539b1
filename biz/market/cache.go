package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

const metadataTTL = 24 * time.Hour

// CachedGateway 在 Redis 中缓存行情。缓存只是加速，Redis 故障时直接回源
type CachedGateway struct {
	next     Gateway
	rdb      redis.Cmdable
	priceTTL time.Duration
	quoteTTL time.Duration
}

func NewCachedGateway(next Gateway, rdb redis.Cmdable, priceTTL, quoteTTL time.Duration) *CachedGateway {
	return &CachedGateway{next: next, rdb: rdb, priceTTL: priceTTL, quoteTTL: quoteTTL}
}

func priceKey(id string) string {
	return "market:price:" + id
}

func (g *CachedGateway) Prices(ctx context.Context, ids []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(ids))
	var misses []string
	for _, id := range ids {
		var q Quote
		if g.load(ctx, priceKey(id), &q) {
			out[id] = q
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}
	fetched, err := g.next.Prices(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, q := range fetched {
		out[id] = q
		g.store(ctx, priceKey(id), q, g.priceTTL)
	}
	return out, nil
}

func (g *CachedGateway) AssetMetadata(ctx context.Context, id string) (*AssetMetadata, error) {
	key := "market:meta:" + id
	var m AssetMetadata
	if g.load(ctx, key, &m) {
		return &m, nil
	}
	meta, err := g.next.AssetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, meta, metadataTTL)
	return meta, nil
}

func (g *CachedGateway) ExchangeQuote(ctx context.Context) (*ExchangeQuote, error) {
	key := "market:dolar:blue"
	var q ExchangeQuote
	if g.load(ctx, key, &q) {
		return &q, nil
	}
	quote, err := g.next.ExchangeQuote(ctx)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, quote, g.quoteTTL)
	return quote, nil
}

func (g *CachedGateway) Markets(ctx context.Context, page, perPage int) ([]Coin, error) {
	key := fmt.Sprintf("market:list:%d:%d", page, perPage)
	var coins []Coin
	if g.load(ctx, key, &coins) {
		return coins, nil
	}
	coins, err := g.next.Markets(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, coins, g.priceTTL)
	return coins, nil
}

func (g *CachedGateway) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return g.next.Search(ctx, query)
}

func (g *CachedGateway) load(ctx context.Context, key string, out interface{}) bool {
	if g.rdb == nil {
		return false
	}
	b, err := g.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			hlog.CtxWarnf(ctx, "market cache get failed, key=%s, err=%v", key, err)
		}
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (g *CachedGateway) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if g.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := g.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		hlog.CtxWarnf(ctx, "market cache set failed, key=%s, err=%v", key, err)
	}
}
