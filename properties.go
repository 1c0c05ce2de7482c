package hotbench

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type Properties map[string]string

func NewProperties() Properties {
	return make(Properties)
}

func (self Properties) Get(key string) string {
	return self[key]
}

func (self Properties) GetDefault(key string, defaultValue string) string {
	if v, ok := self[key]; ok {
		return v
	}
	return defaultValue
}

func (self Properties) Add(key, value string) {
	self[key] = value
}

// Merge copies every entry of other into the properties, overriding
// existing values.
func (self Properties) Merge(other map[string]string) {
	for k, v := range other {
		self[k] = v
	}
}

// Clone returns a copy that can be modified independently.
func (self Properties) Clone() Properties {
	ret := make(Properties, len(self))
	ret.Merge(self)
	return ret
}

func (self Properties) GetInt64(key, defaultValue string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(self.GetDefault(key, defaultValue)), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrInvalidProperty, key, err)
	}
	return v, nil
}

func (self Properties) GetFloat64(key, defaultValue string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(self.GetDefault(key, defaultValue)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrInvalidProperty, key, err)
	}
	return v, nil
}

func (self Properties) GetBool(key, defaultValue string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(self.GetDefault(key, defaultValue)))
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrInvalidProperty, key, err)
	}
	return v, nil
}

// LoadProperties reads a workload file. YAML and JSON files are recognized
// by their extension and flattened with "." as the key delimiter; any other
// file is read as `name=value` lines where lines starting with '#' or '!'
// are comments.
func LoadProperties(path string) (Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load properties %s: %w", path, err)
	}
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return parseProperties(path, data)
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("parse properties %s: %w", path, err)
	}
	ret := NewProperties()
	for _, key := range k.Keys() {
		ret[key] = formatValue(k.Get(key))
	}
	return ret, nil
}

func parseProperties(path string, data []byte) (Properties, error) {
	ret := NewProperties()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' || line[0] == '!' {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %s:%d: %q", ErrInvalidProperty, path, lineNumber, line)
		}
		ret[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse properties %s: %w", path, err)
	}
	return ret, nil
}

// formatValue renders a parsed value the way it would be written in a
// properties file. JSON numbers arrive as float64, integral ones are
// printed without exponent.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
