// Package plan holds the migration plan record that steers classification and
// rewriting, together with its JSON file format.
package plan

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

type ProjectType string

const (
	ProjectSpringBoot ProjectType = "spring-boot"
	ProjectSpring     ProjectType = "spring"
	ProjectPlainJava  ProjectType = "plain-java"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

const (
	TargetJava       = 17
	TargetSpringBoot = "3.2.x"
)

// Plan is created once per run and only read afterwards. Pass it by value;
// Modules must not be mutated.
type Plan struct {
	// CurrentJava is a number because legacy projects report Java 8 as 1.8.
	CurrentJava       float64     `json:"current_java"`
	TargetJava        int         `json:"target_java"`
	CurrentSpringBoot *string     `json:"current_spring_boot"`
	TargetSpringBoot  string      `json:"target_spring_boot"`
	ProjectType       ProjectType `json:"project_type"`
	Modules           []string    `json:"modules"`
	UsesWeb           bool        `json:"uses_web"`
	UsesSecurity      bool        `json:"uses_security"`
	UsesJPA           bool        `json:"uses_jpa"`
	RiskLevel         RiskLevel   `json:"risk_level"`
}

// Default is the plan assumed when none was generated: a Java 8 project moving
// to Java 17 and Spring Boot 3.2.
func Default() Plan {
	return Plan{
		CurrentJava:      8,
		TargetJava:       TargetJava,
		TargetSpringBoot: TargetSpringBoot,
		ProjectType:      ProjectSpringBoot,
		Modules:          []string{},
		RiskLevel:        RiskMedium,
	}
}

// CurrentJavaVersion renders CurrentJava without a trailing ".0" ("8", "1.8").
func (p Plan) CurrentJavaVersion() string {
	return strconv.FormatFloat(p.CurrentJava, 'f', -1, 64)
}

// CurrentBoot returns the current Spring Boot version or "none".
func (p Plan) CurrentBoot() string {
	if p.CurrentSpringBoot == nil || *p.CurrentSpringBoot == "" {
		return "none"
	}
	return *p.CurrentSpringBoot
}

//go:embed plan.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("plan.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("plan.schema.json")
	})
	return schema, schemaErr
}

// Parse validates data against the plan schema and decodes it.
func Parse(data []byte) (Plan, error) {
	s, err := compiledSchema()
	if err != nil {
		return Plan{}, fmt.Errorf("failed to compile plan schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Plan{}, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return Plan{}, fmt.Errorf("plan does not match schema: %w", err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	if p.Modules == nil {
		p.Modules = []string{}
	}
	return p, nil
}

func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return Plan{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Save writes p as indented JSON, creating parent directories.
func Save(path string, p Plan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
