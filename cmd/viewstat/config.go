package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every setting of a viewstat run.
type Config struct {
	Shape      []int
	Label      string
	Space      string // host or arena
	ChunkSize  int
	SpaceLimit int
	Exec       string // serial or threads
	Threads    int
	Copies     int
	Subviews   bool
	Padding    bool
	NoInit     bool
	LogLevel   string
	Prometheus bool
	Format     string // text or yaml
}

// configFromViper reads the configuration bound from flags and environment.
func configFromViper() (*Config, error) {
	shape, err := parseShape(viper.GetString("shape"))
	if err != nil {
		return nil, err
	}
	c := &Config{
		Shape:      shape,
		Label:      viper.GetString("label"),
		Space:      strings.ToLower(viper.GetString("space")),
		ChunkSize:  viper.GetInt("chunk-size") * 1024,
		SpaceLimit: viper.GetInt("space-limit") * 1024,
		Exec:       strings.ToLower(viper.GetString("exec")),
		Threads:    viper.GetInt("threads"),
		Copies:     viper.GetInt("copies"),
		Subviews:   viper.GetBool("subviews"),
		Padding:    viper.GetBool("padding"),
		NoInit:     viper.GetBool("no-init"),
		LogLevel:   viper.GetString("log-level"),
		Prometheus: viper.GetBool("prometheus"),
		Format:     strings.ToLower(viper.GetString("format")),
	}
	return c, c.Validate()
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Space {
	case "host", "arena":
	default:
		return fmt.Errorf("invalid space %s (expected one of: host, arena)", c.Space)
	}
	switch c.Exec {
	case "serial", "threads":
	default:
		return fmt.Errorf("invalid exec %s (expected one of: serial, threads)", c.Exec)
	}
	switch c.Format {
	case "text", "yaml":
	default:
		return fmt.Errorf("invalid format %s (expected one of: text, yaml)", c.Format)
	}
	if c.Copies < 0 {
		return fmt.Errorf("copies must not be negative, got %d", c.Copies)
	}
	return nil
}

// parseShape parses a comma-separated list of extents such as "3,3".
func parseShape(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid extent %q in shape %q: %v", p, s, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid extent %d in shape %q", n, s)
		}
		shape = append(shape, n)
	}
	return shape, nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("View")
	addField("Label", strconv.Quote(c.Label))
	addField("Shape", fmt.Sprintf("%v", c.Shape))
	addField("Allow Padding", strconv.FormatBool(c.Padding))
	addField("Without Initializing", strconv.FormatBool(c.NoInit))

	addSection("Spaces")
	addField("Memory Space", c.Space)
	if c.Space == "arena" {
		addField("Chunk Size", fmt.Sprintf("%d bytes", c.ChunkSize))
		addField("Limit", fmt.Sprintf("%d bytes", c.SpaceLimit))
	}
	addField("Execution Space", c.Exec)
	if c.Exec == "threads" {
		addField("Threads", strconv.Itoa(c.Threads))
	}

	addSection("Workload")
	addField("Copies", strconv.Itoa(c.Copies))
	addField("Subviews", strconv.FormatBool(c.Subviews))

	addSection("Output")
	addField("Log Level", c.LogLevel)
	addField("Format", c.Format)
	addField("Prometheus", strconv.FormatBool(c.Prometheus))
	return sb.String()
}
