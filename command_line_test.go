package hotbench

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/hhkbp2/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(context.Background(), append([]string{ProgramName}, args...))
	return out.String(), err
}

func TestCommandLineKeys(t *testing.T) {
	out, err := runApp(t, "keys", "--seed", "1", "-n", "1000", "--upper", "99", "--hotopn", "1")
	require.Nil(t, err)
	require.True(t, strings.Contains(out, "range: [0, 99]\n"))
	require.True(t, strings.Contains(out, "draws: 1000, hot: 1000, "))

	_, err = runApp(t, "keys", "--upper", "many")
	require.True(t, errors.Is(err, ErrInvalidProperty))
}

func TestCommandLineLoadAndRun(t *testing.T) {
	defer SetupLogger(PropertyLogLevelDefault, true, os.Stderr)
	name := t.Name()
	defer DropMemoryStore(name)

	_, err := runApp(t, "--log-level", "quiet", "load",
		"-p", "recordcount=20",
		"-p", ConfigMemoryDBName+"="+name,
		"--threads", "2",
		"memory")
	require.Nil(t, err)
	require.Equal(t, 20, newTestMemoryDB(t, name).Count(PropertyTableNameDefault))

	path := writeFile(t, "workload.yaml", "recordcount: 20\noperationcount: 30\nreadproportion: 1\nupdateproportion: 0\n")
	out, err := runApp(t, "--log-level", "quiet", "run",
		"-P", path,
		"-p", ConfigMemoryDBName+"="+name,
		"memory")
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(out, "[OVERALL], RunTime(ms), "))
	require.True(t, strings.Contains(out, "[READ], Operations, 30\n"))
	require.True(t, strings.Contains(out, "[READ], Return=OK, 30\n"))
}

func TestCommandLineErrors(t *testing.T) {
	defer SetupLogger(PropertyLogLevelDefault, true, os.Stderr)

	_, err := runApp(t, "--log-level", "quiet", "load", "-p", "novalue", "basic")
	require.True(t, errors.Is(err, ErrUsage))
	_, err = runApp(t, "--log-level", "quiet", "load", "-p", "recordcount=1", "nosql")
	require.True(t, errors.Is(err, ErrUnsupportedDB))
	_, err = runApp(t, "--log-level", "loud", "load", "basic")
	require.True(t, errors.Is(err, ErrInvalidProperty))
}

func TestBuildPropertiesOrder(t *testing.T) {
	defer SetupLogger(PropertyLogLevelDefault, true, os.Stderr)
	name := t.Name()
	defer DropMemoryStore(name)

	// -p overrides -P and --table overrides both
	path := writeFile(t, "workload", "recordcount=5\ntable=fromfile\n")
	_, err := runApp(t, "--log-level", "quiet", "load",
		"-P", path,
		"-p", "recordcount=7",
		"-p", "table=fromflag",
		"-p", ConfigMemoryDBName+"="+name,
		"--table", "final",
		"memory")
	require.Nil(t, err)
	db := newTestMemoryDB(t, name)
	require.Equal(t, 7, db.Count("final"))
	require.Equal(t, 0, db.Count("fromfile"))
	require.Equal(t, 0, db.Count("fromflag"))
}
