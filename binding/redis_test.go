package binding

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hhkbp2/hotbench"
	"github.com/hhkbp2/testify/require"
)

func newTestRedisDB(t *testing.T) (*RedisDB, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	db := NewRedisDB()
	db.SetProperties(hotbench.Properties{
		PropertyRedisHost: mr.Host(),
		PropertyRedisPort: mr.Port(),
	})
	require.Nil(t, db.Init())
	t.Cleanup(func() {
		db.Cleanup()
	})
	return db, mr
}

func TestRedisOptions(t *testing.T) {
	options, timeout, err := redisOptions(hotbench.Properties{
		PropertyRedisPort:     "6380",
		PropertyRedisDatabase: "2",
		PropertyRedisTimeout:  "250",
	})
	require.Nil(t, err)
	require.Equal(t, "127.0.0.1:6380", options.Addr)
	require.Equal(t, 2, options.DB)
	require.Equal(t, int64(250), timeout.Milliseconds())

	for _, props := range []hotbench.Properties{
		{PropertyRedisPort: "port"},
		{PropertyRedisDatabase: "first"},
		{PropertyRedisTimeout: "0"},
	} {
		_, _, err = redisOptions(props)
		require.True(t, errors.Is(err, hotbench.ErrInvalidProperty))
	}
}

func TestRedisDB(t *testing.T) {
	db, mr := newTestRedisDB(t)
	table := "usertable"

	_, status := db.Read(table, "user1", nil)
	require.Equal(t, hotbench.StatusNotFound, status)
	require.Equal(t, hotbench.StatusNotFound, db.Update(table, "user1", hotbench.KVMap{"f0": hotbench.Binary("a")}))
	require.Equal(t, hotbench.StatusNotFound, db.Delete(table, "user1"))
	require.Equal(t, hotbench.StatusBadRequest, db.Insert(table, "user1", nil))

	require.Equal(t, hotbench.StatusOK, db.Insert(table, "user1", hotbench.KVMap{
		"f0": hotbench.Binary("a"),
		"f1": hotbench.Binary("b"),
	}))
	require.True(t, mr.Exists("user1"))
	ret, status := db.Read(table, "user1", nil)
	require.Equal(t, hotbench.StatusOK, status)
	require.Equal(t, 2, len(ret))
	require.Equal(t, "a", string(ret["f0"]))

	ret, status = db.Read(table, "user1", []string{"f1", "f9"})
	require.Equal(t, hotbench.StatusOK, status)
	require.Equal(t, 1, len(ret))
	require.Equal(t, "b", string(ret["f1"]))
	_, status = db.Read(table, "user1", []string{"f9"})
	require.Equal(t, hotbench.StatusNotFound, status)

	require.Equal(t, hotbench.StatusOK, db.Update(table, "user1", hotbench.KVMap{"f1": hotbench.Binary("c")}))
	require.Equal(t, "c", mr.HGet("user1", "f1"))
	require.Equal(t, "a", mr.HGet("user1", "f0"))

	require.Equal(t, hotbench.StatusOK, db.Delete(table, "user1"))
	require.False(t, mr.Exists("user1"))
	members, err := mr.ZMembers(redisIndexKey)
	if err == nil {
		require.Equal(t, 0, len(members))
	}
}

func TestRedisDBScan(t *testing.T) {
	db, _ := newTestRedisDB(t)
	table := "usertable"
	keys := []string{"user1", "user2", "user3", "user4", "user5", "user6"}
	for _, key := range keys {
		require.Equal(t, hotbench.StatusOK, db.Insert(table, key, hotbench.KVMap{
			"key": hotbench.Binary(key),
			"f":   hotbench.Binary("v"),
		}))
	}
	start := keys[2]
	expected := 0
	for _, key := range keys {
		if keyScore(key) >= keyScore(start) {
			expected++
		}
	}

	ret, status := db.Scan(table, start, 100, nil)
	require.Equal(t, hotbench.StatusOK, status)
	require.Equal(t, expected, len(ret))
	require.Equal(t, start, string(ret[0]["key"]))
	require.Equal(t, 2, len(ret[0]))

	ret, status = db.Scan(table, start, 1, []string{"key"})
	require.Equal(t, hotbench.StatusOK, status)
	require.Equal(t, 1, len(ret))
	require.Equal(t, 1, len(ret[0]))
	require.Equal(t, start, string(ret[0]["key"]))

	ret, status = db.Scan(table, start, 0, nil)
	require.Equal(t, hotbench.StatusOK, status)
	require.Equal(t, 0, len(ret))
}

func TestRedisInitWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()
	db := NewRedisDB()
	db.SetProperties(hotbench.Properties{
		PropertyRedisHost: host,
		PropertyRedisPort: port,
	})
	require.NotNil(t, db.Init())
	require.Nil(t, db.Cleanup())
}
