package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "grouping.chunk_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidInputFormats returns the list of valid input formats
func ValidInputFormats() []string {
	return []string{"csv", "xlsx"}
}

// ValidOutputFormats returns the list of valid report formats
func ValidOutputFormats() []string {
	return []string{"text", "json", "yaml"}
}

// ValidColorModes returns the list of valid color modes
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// ValidPipelines returns the list of valid pipeline names
func ValidPipelines() []string {
	return []string{PipelineGroups, PipelineClusters}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateInput()...)
	errors = append(errors, c.validateGrouping()...)
	errors = append(errors, c.validateAnalysis()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateInput validates the InputConfig
func (c *Config) validateInput() []ValidationError {
	var errors []ValidationError

	if len(c.Input.ComponentColumn) == 0 {
		errors = append(errors, ValidationError{
			Field:   "input.component_column",
			Value:   c.Input.ComponentColumn,
			Message: "must name at least one header term",
		})
	}
	for i, term := range c.Input.ComponentColumn {
		if strings.TrimSpace(term) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("input.component_column[%d]", i),
				Value:   term,
				Message: "cannot be empty",
			})
		}
	}

	if c.Input.FirstResourceColumn < 0 {
		errors = append(errors, ValidationError{
			Field:   "input.first_resource_column",
			Value:   c.Input.FirstResourceColumn,
			Message: "must be non-negative",
		})
	}

	// A negative last column means "through the end", so only a real index
	// can be out of order.
	if c.Input.LastResourceColumn >= 0 && c.Input.LastResourceColumn < c.Input.FirstResourceColumn {
		errors = append(errors, ValidationError{
			Field:   "input.last_resource_column",
			Value:   c.Input.LastResourceColumn,
			Message: fmt.Sprintf("must not be before input.first_resource_column (%d)", c.Input.FirstResourceColumn),
		})
	}

	if c.Input.Format != "" && !slices.Contains(ValidInputFormats(), c.Input.Format) {
		errors = append(errors, ValidationError{
			Field:   "input.format",
			Value:   c.Input.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidInputFormats(), ", ")),
		})
	}

	return errors
}

// validateGrouping validates the GroupingConfig
func (c *Config) validateGrouping() []ValidationError {
	var errors []ValidationError

	if c.Grouping.ChunkSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "grouping.chunk_size",
			Value:   c.Grouping.ChunkSize,
			Message: "must be non-negative (0 = unbounded)",
		})
	}

	return errors
}

// validateAnalysis validates the AnalysisConfig
func (c *Config) validateAnalysis() []ValidationError {
	var errors []ValidationError

	for i, p := range c.Analysis.Pipelines {
		if !slices.Contains(ValidPipelines(), p) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("analysis.pipelines[%d]", i),
				Value:   p,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPipelines(), ", ")),
			})
		}
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidOutputFormats(), c.Output.Format) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	if !slices.Contains(ValidColorModes(), c.Output.Color) {
		errors = append(errors, ValidationError{
			Field:   "output.color",
			Value:   c.Output.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	if c.Output.Width < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.width",
			Value:   c.Output.Width,
			Message: "must be non-negative (0 = terminal width)",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
