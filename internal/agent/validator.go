package agent

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jimdaga/postpilot/internal/autopilot"
	"github.com/kaptinlin/jsonschema"
)

//go:embed plan_schema.json
var planSchemaJSON []byte

// ErrInvalidPlan is returned when model output does not satisfy the plan schema
var ErrInvalidPlan = errors.New("invalid plan")

// PlanValidator checks raw agent output against the embedded plan schema
type PlanValidator struct {
	schema *jsonschema.Schema
}

// NewPlanValidator compiles the embedded plan schema
func NewPlanValidator() (*PlanValidator, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(planSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}
	return &PlanValidator{schema: schema}, nil
}

// ParsePlan decodes model output into a Plan. Markdown code fences around
// the JSON are tolerated.
func (v *PlanValidator) ParsePlan(raw string) (*autopilot.Plan, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidPlan)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	result := v.schema.Validate(doc)
	if !result.IsValid() {
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		sort.Strings(errorMessages)
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(errorMessages, "; "))
	}

	var plan autopilot.Plan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return &plan, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
