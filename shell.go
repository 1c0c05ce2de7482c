package hotbench

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

const shellHelp = `Commands
  read key [field1 field2 ...] - Read a record
  scan key recordcount [field1 field2 ...] - Scan starting at key
  insert key name1=value1 [name2=value2 ...] - Insert a new record
  update key name1=value1 [name2=value2 ...] - Update a record
  delete key - Delete a record
  table [tablename] - Get or [set] the name of the table
  quit - Quit`

// Shell executes single database operations typed line by line.
type Shell struct {
	db    DB
	in    io.Reader
	out   io.Writer
	table string
}

func NewShell(db DB, table string, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		db:    db,
		in:    in,
		out:   out,
		table: table,
	}
}

// Run reads commands until the input ends or "quit" is entered.
func (self *Shell) Run() error {
	Fprintf(self.out, `Type "help" for command line help`)
	scanner := bufio.NewScanner(self.in)
	for {
		Fprintf(self.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		start := time.Now()
		switch parts[0] {
		case "help":
			Fprintf(self.out, shellHelp)
			continue
		case "quit":
			return nil
		case "table":
			self.doTable(parts)
		case "read":
			self.doRead(parts)
		case "scan":
			self.doScan(parts)
		case "update", "insert":
			self.doWrite(parts)
		case "delete":
			if len(parts) != 2 {
				Fprintf(self.out, `Error: syntax is "delete keyname"`)
				break
			}
			Fprintf(self.out, "Result: %s", self.db.Delete(self.table, parts[1]))
		default:
			Fprintf(self.out, `Error: unknown command "%s"`, parts[0])
		}
		Fprintf(self.out, "%d ms", time.Since(start).Milliseconds())
	}
}

func (self *Shell) doTable(parts []string) {
	switch len(parts) {
	case 1:
	case 2:
		self.table = parts[1]
	default:
		Fprintf(self.out, `Error: syntax is "table tablename"`)
		return
	}
	Fprintf(self.out, `Using table "%s"`, self.table)
}

func (self *Shell) doRead(parts []string) {
	if len(parts) < 2 {
		Fprintf(self.out, `Error: syntax is "read keyname [field1 field2 ...]"`)
		return
	}
	ret, status := self.db.Read(self.table, parts[1], parts[2:])
	Fprintf(self.out, "Return code: %s", status)
	self.printRecord(ret)
}

func (self *Shell) doScan(parts []string) {
	if len(parts) < 3 {
		Fprintf(self.out, `Error: syntax is "scan keyname scanlength [field1 field2 ...]"`)
		return
	}
	scanLength, err := strconv.ParseInt(parts[2], 0, 64)
	if err != nil {
		Fprintf(self.out, "invalid scanlength: %s", parts[2])
		return
	}
	ret, status := self.db.Scan(self.table, parts[1], scanLength, parts[3:])
	Fprintf(self.out, "Return code: %s", status)
	if len(ret) == 0 {
		Fprintf(self.out, "0 records")
		return
	}
	Fprintf(self.out, "--------------------------------")
	for i, record := range ret {
		Fprintf(self.out, "Record %d", i)
		self.printRecord(record)
		Fprintf(self.out, "--------------------------------")
	}
}

func (self *Shell) doWrite(parts []string) {
	if len(parts) < 3 {
		Fprintf(self.out, `Error: syntax is "%s keyname name1=value1 [name2=value2 ...]"`, parts[0])
		return
	}
	values := make(KVMap, len(parts)-2)
	for _, nv := range parts[2:] {
		name, value, ok := strings.Cut(nv, "=")
		if !ok {
			Fprintf(self.out, `Error: invalid name=value %s`, nv)
			return
		}
		values[name] = Binary(value)
	}
	var status StatusType
	if parts[0] == "insert" {
		status = self.db.Insert(self.table, parts[1], values)
	} else {
		status = self.db.Update(self.table, parts[1], values)
	}
	Fprintf(self.out, "Result: %s", status)
}

func (self *Shell) printRecord(record KVMap) {
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		Fprintf(self.out, "%s=%s", name, record[name])
	}
}
