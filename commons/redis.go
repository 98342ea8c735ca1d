package commons

import (
	"github.com/garyburd/redigo/redis"
)

// NewRedisPool returns a pool of connections to the redis server at address.
func NewRedisPool(address string, maxConnections int) *redis.Pool {
	return redis.NewPool(func() (redis.Conn, error) {
		c, err := redis.Dial("tcp", address)
		if err != nil {
			return nil, err
		}
		return c, err
	}, maxConnections)
}
