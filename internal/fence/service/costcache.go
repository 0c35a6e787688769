package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CostCache 标准成本读缓存。失效是显式的：重算服务或SKU写路径
// 在落库之后调用 Invalidate，读路径绝不依赖隐式过期对齐数据。
// rdb 为 nil 时全部操作退化为缓存未命中。
type CostCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCostCache(rdb *redis.Client) *CostCache {
	return &CostCache{rdb: rdb, ttl: 24 * time.Hour}
}

func costKey(skuCode string) string {
	return "fenceyard:stdcost:" + skuCode
}

// Get 读某SKU缓存的单英尺标准成本
func (c *CostCache) Get(ctx context.Context, skuCode string) (float64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	val, err := c.rdb.Get(ctx, costKey(skuCode)).Result()
	if err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Set 写缓存
func (c *CostCache) Set(ctx context.Context, skuCode string, costPerFoot float64) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, costKey(skuCode), fmt.Sprintf("%.4f", costPerFoot), c.ttl)
}

// Invalidate 写后显式失效
func (c *CostCache) Invalidate(ctx context.Context, skuCodes ...string) {
	if c == nil || c.rdb == nil || len(skuCodes) == 0 {
		return
	}
	keys := make([]string, len(skuCodes))
	for i, sku := range skuCodes {
		keys[i] = costKey(sku)
	}
	c.rdb.Del(ctx, keys...)
}
