package binding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hhkbp2/hotbench"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const (
	PropertyRedisHost            = "redis.host"
	PropertyRedisHostDefault     = "127.0.0.1"
	PropertyRedisPort            = "redis.port"
	PropertyRedisPortDefault     = "6379"
	PropertyRedisPassword        = "redis.password"
	PropertyRedisDatabase        = "redis.db"
	PropertyRedisDatabaseDefault = "0"
	// Timeout of a single operation in milliseconds.
	PropertyRedisTimeout        = "redis.timeout"
	PropertyRedisTimeoutDefault = "1000"

	// The sorted set of all keys, scored by the key hash, used by scans.
	redisIndexKey = "_indices"
)

// RedisDB stores every record as a hash. Tables are not used: keys share
// one keyspace.
type RedisDB struct {
	*hotbench.DBBase
	client  *redis.Client
	timeout time.Duration
}

func NewRedisDB() *RedisDB {
	return &RedisDB{
		DBBase: hotbench.NewDBBase(),
	}
}

func redisOptions(props hotbench.Properties) (*redis.Options, time.Duration, error) {
	port, err := props.GetInt64(PropertyRedisPort, PropertyRedisPortDefault)
	if err != nil {
		return nil, 0, err
	}
	db, err := props.GetInt64(PropertyRedisDatabase, PropertyRedisDatabaseDefault)
	if err != nil {
		return nil, 0, err
	}
	timeout, err := props.GetInt64(PropertyRedisTimeout, PropertyRedisTimeoutDefault)
	if err != nil {
		return nil, 0, err
	}
	if timeout <= 0 {
		return nil, 0, fmt.Errorf("%w %s: must be positive", hotbench.ErrInvalidProperty, PropertyRedisTimeout)
	}
	host := props.GetDefault(PropertyRedisHost, PropertyRedisHostDefault)
	return &redis.Options{
		Addr:         net.JoinHostPort(host, strconv.FormatInt(port, 10)),
		Password:     props.Get(PropertyRedisPassword),
		DB:           int(db),
		PoolSize:     4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Duration(timeout) * time.Millisecond,
		WriteTimeout: time.Duration(timeout) * time.Millisecond,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}, time.Duration(timeout) * time.Millisecond, nil
}

func (self *RedisDB) Init() error {
	props := self.GetProperties()
	if props == nil {
		props = hotbench.NewProperties()
	}
	options, timeout, err := redisOptions(props)
	if err != nil {
		return err
	}
	client := redis.NewClient(options)
	ctx, cancel := context.WithTimeout(context.Background(), options.DialTimeout)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis ping %s: %w", options.Addr, err)
	}
	self.client = client
	self.timeout = timeout
	return nil
}

func (self *RedisDB) Cleanup() error {
	if self.client == nil {
		return nil
	}
	return self.client.Close()
}

// keyScore orders keys in the index. It keeps the 53 high bits of the hash
// so that the score is exact as a float64.
func keyScore(key string) float64 {
	return float64(xxhash.Sum64String(key) >> 11)
}

func (self *RedisDB) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), self.timeout)
}

func toRecord(fields []string, values []interface{}) hotbench.KVMap {
	ret := make(hotbench.KVMap, len(fields))
	for i, v := range values {
		if s, ok := v.(string); ok {
			ret[fields[i]] = hotbench.Binary(s)
		}
	}
	return ret
}

func stringsToRecord(m map[string]string) hotbench.KVMap {
	ret := make(hotbench.KVMap, len(m))
	for k, v := range m {
		ret[k] = hotbench.Binary(v)
	}
	return ret
}

func (self *RedisDB) Read(table string, key string, fields []string) (hotbench.KVMap, hotbench.StatusType) {
	ctx, cancel := self.opContext()
	defer cancel()
	if len(fields) == 0 {
		m, err := self.client.HGetAll(ctx, key).Result()
		if err != nil {
			hotbench.Debugf("redis HGETALL %s: %s", key, err)
			return nil, hotbench.StatusError
		}
		if len(m) == 0 {
			return nil, hotbench.StatusNotFound
		}
		return stringsToRecord(m), hotbench.StatusOK
	}
	values, err := self.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		hotbench.Debugf("redis HMGET %s: %s", key, err)
		return nil, hotbench.StatusError
	}
	ret := toRecord(fields, values)
	if len(ret) == 0 {
		return nil, hotbench.StatusNotFound
	}
	return ret, hotbench.StatusOK
}

func (self *RedisDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]hotbench.KVMap, hotbench.StatusType) {
	if recordCount <= 0 {
		return nil, hotbench.StatusOK
	}
	ctx, cancel := self.opContext()
	defer cancel()
	keys, err := self.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min:   strconv.FormatFloat(keyScore(startKey), 'f', -1, 64),
		Max:   "+inf",
		Count: recordCount,
	}).Result()
	if err != nil {
		hotbench.Debugf("redis ZRANGEBYSCORE %s: %s", startKey, err)
		return nil, hotbench.StatusError
	}
	if len(keys) == 0 {
		return nil, hotbench.StatusOK
	}
	cmds := make([]redis.Cmder, 0, len(keys))
	_, err = self.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			if len(fields) == 0 {
				cmds = append(cmds, p.HGetAll(ctx, k))
			} else {
				cmds = append(cmds, p.HMGet(ctx, k, fields...))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		hotbench.Debugf("redis scan pipeline %s: %s", startKey, err)
		return nil, hotbench.StatusError
	}
	ret := make([]hotbench.KVMap, 0, len(cmds))
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case *redis.MapStringStringCmd:
			ret = append(ret, stringsToRecord(c.Val()))
		case *redis.SliceCmd:
			ret = append(ret, toRecord(fields, c.Val()))
		}
	}
	return ret, hotbench.StatusOK
}

func hsetArgs(values hotbench.KVMap) []interface{} {
	args := make([]interface{}, 0, 2*len(values))
	for k, v := range values {
		args = append(args, k, []byte(v))
	}
	return args
}

func (self *RedisDB) Update(table string, key string, values hotbench.KVMap) hotbench.StatusType {
	if len(values) == 0 {
		return hotbench.StatusBadRequest
	}
	ctx, cancel := self.opContext()
	defer cancel()
	n, err := self.client.Exists(ctx, key).Result()
	if err != nil {
		hotbench.Debugf("redis EXISTS %s: %s", key, err)
		return hotbench.StatusError
	}
	if n == 0 {
		return hotbench.StatusNotFound
	}
	if err = self.client.HSet(ctx, key, hsetArgs(values)...).Err(); err != nil {
		hotbench.Debugf("redis HSET %s: %s", key, err)
		return hotbench.StatusError
	}
	return hotbench.StatusOK
}

func (self *RedisDB) Insert(table string, key string, values hotbench.KVMap) hotbench.StatusType {
	if len(values) == 0 {
		return hotbench.StatusBadRequest
	}
	ctx, cancel := self.opContext()
	defer cancel()
	_, err := self.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, hsetArgs(values)...)
		p.ZAdd(ctx, redisIndexKey, redis.Z{Score: keyScore(key), Member: key})
		return nil
	})
	if err != nil {
		hotbench.Debugf("redis insert %s: %s", key, err)
		return hotbench.StatusError
	}
	return hotbench.StatusOK
}

func (self *RedisDB) Delete(table string, key string) hotbench.StatusType {
	ctx, cancel := self.opContext()
	defer cancel()
	var del *redis.IntCmd
	_, err := self.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, key)
		p.ZRem(ctx, redisIndexKey, key)
		return nil
	})
	if err != nil {
		hotbench.Debugf("redis delete %s: %s", key, err)
		return hotbench.StatusError
	}
	if del.Val() == 0 {
		return hotbench.StatusNotFound
	}
	return hotbench.StatusOK
}
