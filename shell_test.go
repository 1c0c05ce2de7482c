package hotbench

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hhkbp2/testify/require"
)

func TestShell(t *testing.T) {
	name := t.Name()
	defer DropMemoryStore(name)
	db := newTestMemoryDB(t, name)
	script := strings.Join([]string{
		"help",
		"",
		"insert user1 field0=a field1=b",
		"insert user2 field0=c",
		"update user1 field1=x",
		"read user1",
		"read user9",
		"scan user1 5 field0",
		"delete user2",
		"delete",
		"table",
		"table other",
		"read user1",
		"insert user3 novalue",
		"scan user1 many",
		"flush",
		"quit",
		"read user1",
	}, "\n")
	var out bytes.Buffer
	require.Nil(t, NewShell(db, PropertyTableNameDefault, strings.NewReader(script), &out).Run())
	s := out.String()
	require.True(t, strings.Contains(s, "read key [field1 field2 ...] - Read a record\n"))
	require.True(t, strings.Contains(s, "field0=a\nfield1=x\n"))
	require.True(t, strings.Contains(s, "Return code: NOT_FOUND\n"))
	require.True(t, strings.Contains(s, "Record 0\nfield0=a\n"))
	require.True(t, strings.Contains(s, "Record 1\nfield0=c\n"))
	require.True(t, strings.Contains(s, `Error: syntax is "delete keyname"`))
	require.True(t, strings.Contains(s, `Using table "usertable"`))
	require.True(t, strings.Contains(s, `Using table "other"`))
	require.True(t, strings.Contains(s, "Error: invalid name=value novalue\n"))
	require.True(t, strings.Contains(s, "invalid scanlength: many\n"))
	require.True(t, strings.Contains(s, `Error: unknown command "flush"`))
	// only the first read of user1 hits, the other table is empty
	require.Equal(t, 1, strings.Count(s, "field1=x"))

	require.Equal(t, 1, db.Count(PropertyTableNameDefault))
	require.Equal(t, 0, db.Count("other"))
}

func TestShellEndOfInput(t *testing.T) {
	var out bytes.Buffer
	db := NewBasicDB()
	require.Nil(t, NewShell(db, "t", strings.NewReader("delete k"), &out).Run())
	require.True(t, strings.Contains(out.String(), "Result: OK\n"))
}
