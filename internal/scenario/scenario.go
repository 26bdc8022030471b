// Package scenario loads scripted command sequences and replays them against a
// layout controller, checking the expected tree state after each step.
package scenario

import (
	// Embeds the scenario schema.
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidScenario is wrapped by every load and validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// DefaultDT is the tick length used when a scenario does not set one.
const DefaultDT = 1.0 / 60

// Scenario is a named list of steps run against a freshly seeded tree.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Seed        []int   `yaml:"seed"`
	DT          float64 `yaml:"dt"`
	Steps       []Step  `yaml:"steps"`
}

// Step is one command followed by some animation time.
type Step struct {
	// Do is a command line such as "insert 42". Empty steps only advance time.
	Do string `yaml:"do"`
	// Ticks is the number of fixed ticks run after the command.
	Ticks int `yaml:"ticks"`
	// Settle ticks until every node rests and no search is running.
	Settle bool    `yaml:"settle"`
	Expect *Expect `yaml:"expect"`
}

// Expect lists the observations checked after a step. Unset fields are skipped.
type Expect struct {
	InOrder   *string `yaml:"inorder"`
	PreOrder  *string `yaml:"preorder"`
	PostOrder *string `yaml:"postorder"`
	Size      *int    `yaml:"size"`
	Depth     *int    `yaml:"depth"`
	Minimum   *int    `yaml:"minimum"`
	Maximum   *int    `yaml:"maximum"`
	Status    *string `yaml:"status"`
	Settled   *bool   `yaml:"settled"`
	Search    *string `yaml:"search"`
	// Check verifies the order, parent links and size of the tree.
	Check     *bool   `yaml:"check"`
}

// ValidationError lists every schema violation of a scenario document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidScenario, strings.Join(e.Violations, "; "))
}

// Unwrap makes errors.Is match ErrInvalidScenario.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidScenario
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return sc, nil
}

// Parse decodes a YAML scenario and validates it against the embedded schema.
func Parse(data []byte) (*Scenario, error) {
	var doc any

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}

	var sc Scenario

	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if sc.DT == 0 {
		sc.DT = DefaultDT
	}

	return &sc, nil
}

// Validate checks a decoded document against the scenario schema. Every
// violation is reported, not only the first.
func Validate(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return &ValidationError{Violations: violations}
}

// Schema returns the JSON schema scenarios are validated against.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}
