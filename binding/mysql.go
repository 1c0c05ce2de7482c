package binding

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/hhkbp2/hotbench"
)

const (
	PropertyMysqlHost              = "mysql.host"
	PropertyMysqlHostDefault       = "127.0.0.1"
	PropertyMysqlPort              = "mysql.port"
	PropertyMysqlPortDefault       = "3306"
	PropertyMysqlDatabase          = "mysql.db"
	PropertyMysqlDatabaseDefault   = "db"
	PropertyMysqlUser              = "mysql.user"
	PropertyMysqlUserDefault       = "user"
	PropertyMysqlPassword          = "mysql.password"
	PropertyMysqlPasswordDefault   = "password"
	PropertyMysqlOptions           = "mysql.options"
	PropertyMysqlOptionsDefault    = "charset=utf8mb4"
	PropertyMysqlPrimaryKey        = "mysql.primarykey"
	PropertyMysqlPrimaryKeyDefault = "ycsb_key"
)

// MysqlDB stores every record as one row keyed by the primary key column,
// with one column per field.
type MysqlDB struct {
	*hotbench.DBBase
	primaryKey string
	db         *sql.DB

	lock       sync.Mutex
	statements map[string]*sql.Stmt
}

func NewMysqlDB() *MysqlDB {
	return &MysqlDB{
		DBBase:     hotbench.NewDBBase(),
		statements: make(map[string]*sql.Stmt),
	}
}

// mysqlDSN builds the data source name from the mysql.* properties.
func mysqlDSN(props hotbench.Properties) (string, error) {
	port, err := props.GetInt64(PropertyMysqlPort, PropertyMysqlPortDefault)
	if err != nil {
		return "", err
	}
	options, err := url.ParseQuery(props.GetDefault(PropertyMysqlOptions, PropertyMysqlOptionsDefault))
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", hotbench.ErrInvalidProperty, PropertyMysqlOptions, err)
	}
	config := mysql.NewConfig()
	config.User = props.GetDefault(PropertyMysqlUser, PropertyMysqlUserDefault)
	config.Passwd = props.GetDefault(PropertyMysqlPassword, PropertyMysqlPasswordDefault)
	config.Net = "tcp"
	config.Addr = net.JoinHostPort(props.GetDefault(PropertyMysqlHost, PropertyMysqlHostDefault), fmt.Sprint(port))
	config.DBName = props.GetDefault(PropertyMysqlDatabase, PropertyMysqlDatabaseDefault)
	// affected rows of an update count the matched rows, not the changed ones
	config.ClientFoundRows = true
	if len(options) > 0 {
		config.Params = make(map[string]string, len(options))
		for k := range options {
			config.Params[k] = options.Get(k)
		}
	}
	return config.FormatDSN(), nil
}

func (self *MysqlDB) Init() error {
	props := self.GetProperties()
	if props == nil {
		props = hotbench.NewProperties()
	}
	dsn, err := mysqlDSN(props)
	if err != nil {
		return err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	self.primaryKey = props.GetDefault(PropertyMysqlPrimaryKey, PropertyMysqlPrimaryKeyDefault)
	self.db = db
	return nil
}

func (self *MysqlDB) Cleanup() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	var errs []error
	for _, stmt := range self.statements {
		errs = append(errs, stmt.Close())
	}
	self.statements = make(map[string]*sql.Stmt)
	if self.db != nil {
		errs = append(errs, self.db.Close())
	}
	return errors.Join(errs...)
}

// prepare returns the cached prepared statement of query.
func (self *MysqlDB) prepare(query string) (*sql.Stmt, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if stmt, ok := self.statements[query]; ok {
		return stmt, nil
	}
	stmt, err := self.db.Prepare(query)
	if err != nil {
		hotbench.Debugf("mysql prepare %q: %s", query, err)
		return nil, err
	}
	self.statements[query] = stmt
	return stmt, nil
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func sortedFields(values hotbench.KVMap) []string {
	ret := make([]string, 0, len(values))
	for k := range values {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func selectList(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, quoteIdentifier(f))
	}
	return strings.Join(quoted, ", ")
}

func (self *MysqlDB) readStatement(table string, fields []string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		selectList(fields), quoteIdentifier(table), quoteIdentifier(self.primaryKey))
}

func (self *MysqlDB) scanStatement(table string, fields []string) string {
	pk := quoteIdentifier(self.primaryKey)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s >= ? ORDER BY %s LIMIT ?",
		selectList(fields), quoteIdentifier(table), pk, pk)
}

func (self *MysqlDB) updateStatement(table string, values hotbench.KVMap) (string, []interface{}) {
	fields := sortedFields(values)
	sets := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	for _, f := range fields {
		sets = append(sets, quoteIdentifier(f)+" = ?")
		args = append(args, []byte(values[f]))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdentifier(table), strings.Join(sets, ", "), quoteIdentifier(self.primaryKey)), args
}

func (self *MysqlDB) insertStatement(table string, key string, values hotbench.KVMap) (string, []interface{}) {
	fields := sortedFields(values)
	columns := make([]string, 0, len(fields)+1)
	marks := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+1)
	columns = append(columns, quoteIdentifier(self.primaryKey))
	marks = append(marks, "?")
	args = append(args, key)
	for _, f := range fields {
		columns = append(columns, quoteIdentifier(f))
		marks = append(marks, "?")
		args = append(args, []byte(values[f]))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table), strings.Join(columns, ", "), strings.Join(marks, ", ")), args
}

func (self *MysqlDB) deleteStatement(table string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdentifier(table), quoteIdentifier(self.primaryKey))
}

// scanRows reads every row into a record, leaving out the primary key column.
func (self *MysqlDB) scanRows(rows *sql.Rows, limit int64) ([]hotbench.KVMap, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	raw := make([]sql.RawBytes, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	ret := make([]hotbench.KVMap, 0, limit)
	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make(hotbench.KVMap, len(columns))
		for i, column := range columns {
			if column == self.primaryKey {
				continue
			}
			record[column] = append(hotbench.Binary(nil), raw[i]...)
		}
		ret = append(ret, record)
	}
	return ret, rows.Err()
}

func (self *MysqlDB) query(statement string, args ...interface{}) ([]hotbench.KVMap, hotbench.StatusType) {
	stmt, err := self.prepare(statement)
	if err != nil {
		return nil, hotbench.StatusBadRequest
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		hotbench.Debugf("mysql query %q: %s", statement, err)
		return nil, hotbench.StatusError
	}
	defer rows.Close()
	ret, err := self.scanRows(rows, 1)
	if err != nil {
		hotbench.Debugf("mysql scan rows %q: %s", statement, err)
		return nil, hotbench.StatusError
	}
	return ret, hotbench.StatusOK
}

func (self *MysqlDB) Read(table string, key string, fields []string) (hotbench.KVMap, hotbench.StatusType) {
	ret, status := self.query(self.readStatement(table, fields), key)
	if status != hotbench.StatusOK {
		return nil, status
	}
	if len(ret) == 0 {
		return nil, hotbench.StatusNotFound
	}
	return ret[0], hotbench.StatusOK
}

func (self *MysqlDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]hotbench.KVMap, hotbench.StatusType) {
	return self.query(self.scanStatement(table, fields), startKey, recordCount)
}

func (self *MysqlDB) exec(statement string, args ...interface{}) hotbench.StatusType {
	stmt, err := self.prepare(statement)
	if err != nil {
		return hotbench.StatusBadRequest
	}
	result, err := stmt.Exec(args...)
	if err != nil {
		hotbench.Debugf("mysql exec %q: %s", statement, err)
		return hotbench.StatusError
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return hotbench.StatusNotFound
	}
	return hotbench.StatusOK
}

func (self *MysqlDB) Update(table string, key string, values hotbench.KVMap) hotbench.StatusType {
	statement, args := self.updateStatement(table, values)
	return self.exec(statement, append(args, key)...)
}

func (self *MysqlDB) Insert(table string, key string, values hotbench.KVMap) hotbench.StatusType {
	statement, args := self.insertStatement(table, key, values)
	return self.exec(statement, args...)
}

func (self *MysqlDB) Delete(table string, key string) hotbench.StatusType {
	return self.exec(self.deleteStatement(table), key)
}
