package generator

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/internal/util"
	"github.com/pathforge/pathforge/pkg/models"
)

// Prompts renders the model prompt for a request
type Prompts struct {
	templates  config.PromptTemplates
	schema     string
	maxAnswers int
}

// NewPrompts builds a prompt renderer. Empty templates fall back to the
// built-in defaults. maxAnswers caps the answers embedded in advice prompts.
func NewPrompts(templates config.PromptTemplates, maxAnswers int) (*Prompts, error) {
	if templates.Roadmap == "" {
		templates.Roadmap = config.GetDefaultRoadmapTemplate()
	}
	if templates.GeneralRoadmap == "" {
		templates.GeneralRoadmap = config.GetDefaultGeneralRoadmapTemplate()
	}
	if templates.Advice == "" {
		templates.Advice = config.GetDefaultAdviceTemplate()
	}

	schema, err := StepSchema()
	if err != nil {
		return nil, err
	}
	return &Prompts{templates: templates, schema: schema, maxAnswers: maxAnswers}, nil
}

// Build renders the prompt for req
func (p *Prompts) Build(req models.GenerationRequest) (string, error) {
	switch req.Kind {
	case models.KindRoadmap:
		if len(req.Answers) == 0 {
			return util.RenderTemplate(p.templates.GeneralRoadmap, map[string]any{
				"Schema": p.schema,
			})
		}
		return util.RenderTemplate(p.templates.Roadmap, map[string]any{
			"Answers": req.Answers,
			"Schema":  p.schema,
		})
	case models.KindAdvice:
		answers := req.Answers
		if p.maxAnswers > 0 && len(answers) > p.maxAnswers {
			answers = answers[:p.maxAnswers]
		}
		return util.RenderTemplate(p.templates.Advice, map[string]any{
			"Answers": answers,
			"Message": req.UserMessage,
		})
	default:
		return "", fmt.Errorf("unknown generation kind %q", req.Kind)
	}
}

// StepSchema returns the JSON Schema of a single roadmap step
func StepSchema() (string, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := r.Reflect(&models.RoadmapStep{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal step schema: %w", err)
	}
	return string(out), nil
}
