package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"

	"github.com/qobs-build/juce2cmake/internal/builder/gen"
	"github.com/qobs-build/juce2cmake/internal/jucer"
)

const ConfigFilename = "juce2cmake.toml"

type Config struct {
	Modules  ModulesSection  `toml:"modules"`
	Projects ProjectsSection `toml:"projects"`
	Fetch    FetchSection    `toml:"fetch"`
}

// ModulesSection defines the [modules] section
type ModulesSection struct {
	Dir           string   `toml:"dir"`
	Output        string   `toml:"output"`
	SourcePrefix  string   `toml:"source_prefix"`
	IncludeDir    string   `toml:"include_dir"`
	CxxStandard   int      `toml:"cxx_standard"`
	Definitions   []string `toml:"definitions"`
	Exclude       []string `toml:"exclude"`
	PlatformLinks bool     `toml:"platform_links"`
}

// ProjectsSection defines the [projects] section
type ProjectsSection struct {
	Root        string   `toml:"root"`
	Pattern     string   `toml:"pattern"`
	Exclude     []string `toml:"exclude"`
	Output      string   `toml:"output"`
	JuceDir     string   `toml:"juce_dir"`
	CxxStandard int      `toml:"cxx_standard"`
}

// FetchSection defines the [fetch] section
type FetchSection struct {
	Source string `toml:"source"`
}

// DefaultConfig mirrors the layout the generator has always assumed: JUCE
// checked out next to the working directory. IncludeDir and JuceDir are left
// empty so they follow modules.dir and modules.output.
func DefaultConfig() *Config {
	return &Config{
		Modules: ModulesSection{
			Dir:           "../JUCE/modules",
			Output:        gen.DefaultModulesFile,
			SourcePrefix:  gen.DefaultSourcePrefix,
			CxxStandard:   gen.DefaultCxxStandard,
			Definitions:   []string{"JUCE_GLOBAL_MODULE_SETTINGS_INCLUDED"},
			PlatformLinks: false,
		},
		Projects: ProjectsSection{
			Root:        ".",
			Pattern:     jucer.DefaultPattern,
			Output:      gen.DefaultProjectFile,
			CxxStandard: gen.DefaultCxxStandard,
		},
		Fetch: FetchSection{
			Source: "gh:juce-framework/JUCE",
		},
	}
}

// mergeStructs merges the fields of the src struct into the dst struct.
// Slices are appended and other non-zero values override. Bools are copied
// when their toml key is in keys, the table src was decoded from, so a
// conditional section can switch a flag off as well as on.
func mergeStructs(dst, src any, keys map[string]any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)

	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}

	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Bool:
			tag, _, _ := strings.Cut(srcVal.Type().Field(i).Tag.Get("toml"), ",")
			if _, ok := keys[tag]; ok {
				dstField.SetBool(srcField.Bool())
			}
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalSection is a helper to parse sections without conditional logic
func unmarshalSection(rawCfg map[string]any, name string, dst any) error {
	if data, ok := rawCfg[name]; ok {
		if err := toml.Unmarshal([]byte(mustMarshal(data)), dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}
	return nil
}

// unmarshalConditionalSection parses a section whose sub-tables are keyed by
// expressions, e.g. [modules.'target_os == "linux"']. Matching sub-tables are
// merged over the base fields in key order.
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env))
			if err == nil {
				conditionalFields[key] = subMap
			} else {
				baseFields[key] = val
			}
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), dst); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
	}

	for _, expression := range slices.Sorted(maps.Keys(conditionalFields)) {
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		// merge sections if the result is true
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(conditionalFields[expression])), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection, conditionalFields[expression]); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Config, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		if derr, ok := err.(*toml.DecodeError); ok {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	rawConfig = processedConfig.(map[string]any)

	cfg := DefaultConfig()

	if err := unmarshalConditionalSection(rawConfig, "modules", &cfg.Modules, env); err != nil {
		return nil, err
	}
	if err := unmarshalConditionalSection(rawConfig, "projects", &cfg.Projects, env); err != nil {
		return nil, err
	}
	if err := unmarshalSection(rawConfig, "fetch", &cfg.Fetch); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseConfigFromFile parses a config file from a filepath
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(bufio.NewReader(f), env)
}

// LoadConfig reads juce2cmake.toml from dir, or returns the defaults if
// there is none.
func LoadConfig(dir string, env ConfigEnv) (*Config, error) {
	cfg, err := ParseConfigFromFile(filepath.Join(dir, ConfigFilename), env)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFilename, err)
	}
	return cfg, nil
}

//
// expr-lang helpers
//

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// Exists reports whether path (relative to the config directory) exists.
func (env ConfigEnv) Exists(path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(env.basedir, path)
	}
	_, err := os.Stat(path)
	return err == nil
}
