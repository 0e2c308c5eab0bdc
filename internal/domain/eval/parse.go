package eval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Extensions recognised as eval files.
var Extensions = []string{".yaml", ".yml", ".json", ".toml"}

func isEvalFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}

func decodeDocument(ext string, data []byte) (map[string]any, error) {
	var doc map[string]any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, errors.New("json: unexpected data after the document")
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
	if doc == nil {
		return nil, errors.New("empty document")
	}
	return doc, nil
}

// parseDefinition decodes and validates one eval file's contents.
func parseDefinition(path string, data []byte) (*Definition, error) {
	doc, err := decodeDocument(filepath.Ext(path), data)
	if err != nil {
		return nil, err
	}

	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &def,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(modelRefHook),
			mapstructure.DecodeHookFuncType(numberHook),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	def.Path = path
	def.ID = strings.TrimSpace(def.ID)
	def.Name = strings.TrimSpace(def.Name)
	if def.ID == "" {
		def.ID = slug(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if err := validate(&def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return &def, nil
}

var modelRefType = reflect.TypeOf(ModelRef{})

// modelRefHook accepts a bare string where a ModelRef is expected.
func modelRefHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != modelRefType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return []string{s}, nil
	}
	return data, nil
}

// numberHook keeps integer fields exact. Fractional values are rejected
// instead of truncated, and JSON numbers are resolved before they reach
// untyped config maps.
func numberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	for to.Kind() == reflect.Pointer {
		to = to.Elem()
	}
	integer := isIntegerKind(to.Kind())

	switch v := data.(type) {
	case json.Number:
		if integer {
			if i, err := v.Int64(); err == nil {
				return i, nil
			}
			if u, err := strconv.ParseUint(string(v), 10, 64); err == nil {
				return u, nil
			}
			return nil, fmt.Errorf("%s is not a whole number in range", v)
		}
		if to.Kind() == reflect.Interface {
			if i, err := v.Int64(); err == nil {
				return i, nil
			}
			return v.Float64()
		}
	case float64:
		if !integer {
			return data, nil
		}
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not a whole number", v)
		}
		if math.Abs(v) > 1<<53 {
			return nil, fmt.Errorf("%v is too large to be exact; write it as an integer", v)
		}
	}
	return data, nil
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func validate(def *Definition) error {
	var errs []error
	if def.ID == "" {
		errs = append(errs, errors.New("id is empty and cannot be derived from the file name"))
	}
	if def.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if d := def.Dataset; d != nil {
		if strings.TrimSpace(d.Source) == "" {
			errs = append(errs, errors.New("dataset.source is required"))
		}
		if strings.TrimSpace(d.Path) == "" {
			errs = append(errs, errors.New("dataset.path is required"))
		}
		if d.Limit != nil && *d.Limit < 0 {
			errs = append(errs, errors.New("dataset.limit must not be negative"))
		}
	}
	if s := def.Solver; s != nil {
		if strings.TrimSpace(s.Type) == "" {
			errs = append(errs, errors.New("solver.type is required"))
		}
		if s.MaxTurns != nil && *s.MaxTurns < 0 {
			errs = append(errs, errors.New("solver.max_turns must not be negative"))
		}
	}
	for i, sc := range def.Scorers {
		if strings.TrimSpace(sc.Type) == "" {
			errs = append(errs, fmt.Errorf("scorer[%d].type is required", i))
		}
	}
	if e := def.Execution; e != nil {
		if len(e.Model) == 0 {
			errs = append(errs, errors.New("execution.model is required"))
		}
		for i, m := range e.Model {
			if strings.TrimSpace(m) == "" {
				errs = append(errs, fmt.Errorf("execution.model[%d] is empty", i))
			}
		}
		if e.MaxConcurrent < 0 || e.TimeoutSeconds < 0 || e.Retries < 0 {
			errs = append(errs, errors.New("execution limits must not be negative"))
		}
	}
	return errors.Join(errs...)
}

// slug lowercases s and collapses runs of characters outside [a-z0-9_-]
// into a single dash.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
