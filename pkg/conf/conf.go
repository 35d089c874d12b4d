// Package conf loads evaluator settings from YAML or legacy TinyMUSH-style
// .conf files.
package conf

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/crystal-mush/softeval/pkg/eval"
	"gopkg.in/yaml.v3"
)

// Conf holds evaluator limits and the CLI's storage and metrics settings.
type Conf struct {
	// --- Parsing ---
	SpaceCompress bool `yaml:"space_compress"`
	StackLimit    int  `yaml:"parse_stack_limit"`
	AnsiColors    bool `yaml:"ansi_colors"`
	CIsCommand    bool `yaml:"c_is_command"`

	// --- Budgets ---
	FunctionRecursionLimit  int           `yaml:"function_recursion_limit"`
	FunctionInvocationLimit int           `yaml:"function_invocation_limit"`
	FunctionCPULimit        time.Duration `yaml:"function_cpu_limit"` // 0 disables

	// --- Output ---
	OutputLimit    int `yaml:"output_limit"`
	OutputHeadroom int `yaml:"output_headroom"`
	MaxGlobalRegs  int `yaml:"max_global_regs"`

	// --- Trace ---
	TraceOutputLimit int  `yaml:"trace_output_limit"`
	TraceTopdown     bool `yaml:"trace_topdown"`

	// --- CLI ---
	Database    string `yaml:"database"`     // bolt file path
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the listener
}

// Default returns a Conf with TinyMUSH-compatible defaults.
func Default() *Conf {
	return &Conf{
		SpaceCompress:           true,
		StackLimit:              eval.DefaultStackLimit,
		AnsiColors:              true,
		FunctionRecursionLimit:  eval.DefaultNestLimit,
		FunctionInvocationLimit: eval.DefaultInvkLimit,
		FunctionCPULimit:        eval.DefaultCPULimit,
		OutputLimit:             eval.DefaultOutputLimit,
		OutputHeadroom:          eval.DefaultHeadroom,
		MaxGlobalRegs:           eval.MaxGlobalRegs,
		TraceOutputLimit:        eval.DefaultTraceLimit,
		TraceTopdown:            true,
	}
}

// Eval returns the evaluator settings carried by c.
func (c *Conf) Eval() eval.Config {
	return eval.Config{
		SpaceCompress: c.SpaceCompress,
		AnsiColors:    c.AnsiColors,
		CIsCommand:    c.CIsCommand,
		NestLimit:     c.FunctionRecursionLimit,
		InvkLimit:     c.FunctionInvocationLimit,
		CPULimit:      c.FunctionCPULimit,
		TraceLimit:    c.TraceOutputLimit,
		TraceTopdown:  c.TraceTopdown,
		StackLimit:    c.StackLimit,
		OutputLimit:   c.OutputLimit,
		Headroom:      c.OutputHeadroom,
		MaxGlobalRegs: c.MaxGlobalRegs,
	}
}

// Validate rejects settings the evaluator cannot run with.
func (c *Conf) Validate() error {
	switch {
	case c.FunctionRecursionLimit < 1:
		return fmt.Errorf("function_recursion_limit must be positive, got %d", c.FunctionRecursionLimit)
	case c.FunctionInvocationLimit < 1:
		return fmt.Errorf("function_invocation_limit must be positive, got %d", c.FunctionInvocationLimit)
	case c.FunctionCPULimit < 0:
		return fmt.Errorf("function_cpu_limit must not be negative, got %s", c.FunctionCPULimit)
	case c.MaxGlobalRegs < 10 || c.MaxGlobalRegs > eval.MaxGlobalRegs:
		return fmt.Errorf("max_global_regs must be between 10 and %d, got %d", eval.MaxGlobalRegs, c.MaxGlobalRegs)
	case c.OutputLimit < 1:
		return fmt.Errorf("output_limit must be positive, got %d", c.OutputLimit)
	}
	return nil
}

// Load loads a config file. Format is picked by extension:
//   - .yaml / .yml  -> YAML
//   - .conf / other -> legacy "key value" lines
func Load(path string) (*Conf, error) {
	var (
		c   *Conf
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = loadYAML(path)
	default:
		c, err = loadLegacy(path)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("conf: %s: %w", path, err)
	}
	return c, nil
}

func loadYAML(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("conf: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("conf: parse YAML %s: %w", path, err)
	}
	return c, nil
}

func loadLegacy(path string) (*Conf, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("conf: open %s: %w", path, err)
	}
	defer f.Close()

	c := Default()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '@' {
			continue
		}
		key, val := splitKeyVal(line)
		switch strings.ToLower(key) {
		case "space_compress":
			c.SpaceCompress = parseBool(val)
		case "parse_stack_limit":
			c.StackLimit = atoi(val, c.StackLimit)
		case "ansi_colors":
			c.AnsiColors = parseBool(val)
		case "c_is_command":
			c.CIsCommand = parseBool(val)
		case "function_recursion_limit":
			c.FunctionRecursionLimit = atoi(val, c.FunctionRecursionLimit)
		case "function_invocation_limit":
			c.FunctionInvocationLimit = atoi(val, c.FunctionInvocationLimit)
		case "function_cpu_limit":
			c.FunctionCPULimit = parseSeconds(val, c.FunctionCPULimit)
		case "output_limit":
			c.OutputLimit = atoi(val, c.OutputLimit)
		case "output_headroom":
			c.OutputHeadroom = atoi(val, c.OutputHeadroom)
		case "max_global_regs":
			c.MaxGlobalRegs = atoi(val, c.MaxGlobalRegs)
		case "trace_output_limit":
			c.TraceOutputLimit = atoi(val, c.TraceOutputLimit)
		case "trace_topdown":
			c.TraceTopdown = parseBool(val)
		case "database":
			c.Database = val
		case "metrics_addr":
			c.MetricsAddr = val
		default:
			log.Printf("conf: %s:%d: ignoring unknown key %q", path, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("conf: read %s: %w", path, err)
	}
	return c, nil
}

func splitKeyVal(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' || line[i] == '\t' {
			return line[:i], strings.TrimSpace(line[i+1:])
		}
	}
	return line, ""
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "yes" || s == "true" || s == "1" || s == "on"
}

// parseSeconds reads a bare number as seconds and anything else as a Go
// duration string.
func parseSeconds(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}
