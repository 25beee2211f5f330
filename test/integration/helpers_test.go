//go:build integration

package integration

import (
	"strconv"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func floatp(v float64) *float64 { return &v }

// brokenRedis points at a port nothing listens on.
func brokenRedis(t *testing.T) *goredis.Client {
	t.Helper()
	c := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { c.Close() })
	return c
}
