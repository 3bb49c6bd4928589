package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Cache key layout shared with middlewares.CacheKeyFrom.
const (
	CacheListPrefix = "cache:events:list:"
	CacheItemPrefix = "cache:events:item:"
)

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeEventsList drops every cached per-user event list.
func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) {
	ci.purge(ctx, CacheListPrefix+"*")
}

// PurgeEvent drops every cached read under one link: the event view and
// its availabilities, for all requesters.
func (ci *CacheInvalidator) PurgeEvent(ctx context.Context, link string) {
	ci.purge(ctx, CacheItemPrefix+link+":*")
}

func (ci *CacheInvalidator) purge(ctx context.Context, pattern string) {
	if ci == nil || ci.rdb == nil {
		return
	}
	iter := ci.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
}
