package binding

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/hhkbp2/hotbench"
	"github.com/hhkbp2/testify/require"
)

func TestMysqlDSN(t *testing.T) {
	dsn, err := mysqlDSN(hotbench.NewProperties())
	require.Nil(t, err)
	config, err := mysql.ParseDSN(dsn)
	require.Nil(t, err)
	require.Equal(t, "user", config.User)
	require.Equal(t, "password", config.Passwd)
	require.Equal(t, "tcp", config.Net)
	require.Equal(t, "127.0.0.1:3306", config.Addr)
	require.Equal(t, "db", config.DBName)
	require.True(t, config.ClientFoundRows)
	require.True(t, strings.Contains(dsn, "charset=utf8mb4"))

	dsn, err = mysqlDSN(hotbench.Properties{
		PropertyMysqlHost:     "::1",
		PropertyMysqlPort:     "13306",
		PropertyMysqlDatabase: "bench",
		PropertyMysqlOptions:  "sql_mode=ANSI",
	})
	require.Nil(t, err)
	config, err = mysql.ParseDSN(dsn)
	require.Nil(t, err)
	require.Equal(t, "[::1]:13306", config.Addr)
	require.Equal(t, "bench", config.DBName)
	require.True(t, strings.Contains(dsn, "sql_mode=ANSI"))
	require.False(t, strings.Contains(dsn, "charset"))

	_, err = mysqlDSN(hotbench.Properties{PropertyMysqlPort: "port"})
	require.True(t, errors.Is(err, hotbench.ErrInvalidProperty))
	_, err = mysqlDSN(hotbench.Properties{PropertyMysqlOptions: "%zz"})
	require.True(t, errors.Is(err, hotbench.ErrInvalidProperty))
}

func TestMysqlInitWithoutServer(t *testing.T) {
	db := NewMysqlDB()
	db.SetProperties(hotbench.Properties{PropertyMysqlPrimaryKey: "id"})
	require.Nil(t, db.Init())
	require.Equal(t, "id", db.primaryKey)
	require.Nil(t, db.Cleanup())

	db = NewMysqlDB()
	db.SetProperties(hotbench.Properties{PropertyMysqlPort: "port"})
	require.True(t, errors.Is(db.Init(), hotbench.ErrInvalidProperty))
}

func TestMysqlStatements(t *testing.T) {
	db := NewMysqlDB()
	db.primaryKey = "ycsb_key"

	require.Equal(t, "SELECT * FROM `usertable` WHERE `ycsb_key` = ?",
		db.readStatement("usertable", nil))
	require.Equal(t, "SELECT `field0`, `field1` FROM `usertable` WHERE `ycsb_key` = ?",
		db.readStatement("usertable", []string{"field0", "field1"}))
	require.Equal(t, "SELECT `field0` FROM `usertable` WHERE `ycsb_key` >= ? ORDER BY `ycsb_key` LIMIT ?",
		db.scanStatement("usertable", []string{"field0"}))
	require.Equal(t, "DELETE FROM `usertable` WHERE `ycsb_key` = ?",
		db.deleteStatement("usertable"))

	values := hotbench.KVMap{
		"field1": hotbench.Binary("b"),
		"field0": hotbench.Binary("a"),
	}
	statement, args := db.updateStatement("usertable", values)
	require.Equal(t, "UPDATE `usertable` SET `field0` = ?, `field1` = ? WHERE `ycsb_key` = ?", statement)
	require.Equal(t, []interface{}{[]byte("a"), []byte("b")}, args)

	statement, args = db.insertStatement("usertable", "user1", values)
	require.Equal(t, "INSERT INTO `usertable` (`ycsb_key`, `field0`, `field1`) VALUES (?, ?, ?)", statement)
	require.Equal(t, []interface{}{"user1", []byte("a"), []byte("b")}, args)

	require.Equal(t, "`odd``name`", quoteIdentifier("odd`name"))
}
