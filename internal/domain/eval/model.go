package eval

import "encoding/json"

// Definition is a parsed eval file. Absent sections stay nil.
type Definition struct {
	ID          string           `json:"id" mapstructure:"id"`
	Name        string           `json:"name" mapstructure:"name"`
	Description string           `json:"description,omitempty" mapstructure:"description"`
	Dataset     *DatasetConfig   `json:"dataset,omitempty" mapstructure:"dataset"`
	Solver      *SolverConfig    `json:"solver,omitempty" mapstructure:"solver"`
	Scorers     []ScorerConfig   `json:"scorer,omitempty" mapstructure:"scorer"`
	Execution   *ExecutionConfig `json:"execution,omitempty" mapstructure:"execution"`
	Path        string           `json:"path" mapstructure:"-"`
}

// DatasetConfig says where samples come from.
type DatasetConfig struct {
	Source  string  `json:"source" mapstructure:"source"`
	Path    string  `json:"path" mapstructure:"path"`
	Split   string  `json:"split,omitempty" mapstructure:"split"`
	Limit   *int    `json:"limit,omitempty" mapstructure:"limit"`
	Shuffle *bool   `json:"shuffle,omitempty" mapstructure:"shuffle"`
	Seed    *uint64 `json:"seed,omitempty" mapstructure:"seed"`
}

// SolverConfig selects and configures the solver.
type SolverConfig struct {
	Type         string `json:"type" mapstructure:"type"`
	SystemPrompt string `json:"system_prompt,omitempty" mapstructure:"system_prompt"`
	Tools        []any  `json:"tools,omitempty" mapstructure:"tools"`
	MaxTurns     *int   `json:"max_turns,omitempty" mapstructure:"max_turns"`
	Sandbox      any    `json:"sandbox,omitempty" mapstructure:"sandbox"`
}

// ScorerConfig is a scorer type plus its free-form settings.
type ScorerConfig struct {
	Type   string         `json:"type" mapstructure:"type"`
	Config map[string]any `json:"-" mapstructure:",remain"`
}

// MarshalJSON flattens Config next to type.
func (s ScorerConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Config)+1)
	for k, v := range s.Config {
		out[k] = v
	}
	out["type"] = s.Type
	return json.Marshal(out)
}

// ExecutionConfig bounds how an eval runs.
type ExecutionConfig struct {
	MaxConcurrent  int      `json:"max_concurrent" mapstructure:"max_concurrent"`
	TimeoutSeconds int      `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Retries        int      `json:"retries" mapstructure:"retries"`
	Model          ModelRef `json:"model" mapstructure:"model"`
}

// ModelRef names one model or several. A single name may be written as a
// plain string.
type ModelRef []string

// MarshalJSON writes a single model back as a string.
func (m ModelRef) MarshalJSON() ([]byte, error) {
	if len(m) == 1 {
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

// Summary is the listing view of a Definition.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// Summary returns the listing view of d.
func (d *Definition) Summary() Summary {
	return Summary{ID: d.ID, Name: d.Name, Description: d.Description, Path: d.Path}
}

// Result is one file's outcome: exactly one of Definition or Err is set.
type Result struct {
	Definition *Definition
	Err        *FileError
}

// Listing is a fully collected load.
type Listing struct {
	Evals  []Summary    `json:"evals"`
	Errors []*FileError `json:"errors"`
}
