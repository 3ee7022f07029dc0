package generator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/pkg/models"
)

func TestPolicy_BackoffSchedule(t *testing.T) {
	b := DefaultPolicy().newBackOff()
	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, b.NextBackOff(), "wait %d", i+1)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.GenerationConfig{
		MaxAttempts:           4,
		InitialBackoffSeconds: 0.5,
		BackoffMultiplier:     3,
	})
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 3.0, p.Multiplier)
	assert.Equal(t, 60*time.Second, p.MaxBackoff)
	assert.Equal(t, 5, p.AdviceMaxAnswers)

	b := p.newBackOff()
	assert.Equal(t, 500*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 1500*time.Millisecond, b.NextBackOff())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "cache_check", StateCacheCheck.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestPrompts_Build(t *testing.T) {
	p, err := NewPrompts(config.PromptTemplates{}, 2)
	require.NoError(t, err)

	answers := []models.AssessmentAnswer{
		{QuestionText: "Field?", SelectedOption: "Healthcare"},
		{QuestionText: "Education?", SelectedOption: "12th pass"},
		{QuestionText: "Location?", SelectedOption: "Pune"},
	}

	roadmap, err := p.Build(models.NewRoadmapRequest("u", answers))
	require.NoError(t, err)
	assert.Contains(t, roadmap, "Q: Location?\nA: Pune")
	assert.Contains(t, roadmap, `"step_id"`)

	advice, err := p.Build(models.NewAdviceRequest("u", "Nursing or lab tech?", answers))
	require.NoError(t, err)
	assert.Contains(t, advice, "- Education?: 12th pass")
	assert.NotContains(t, advice, "Location?")
	assert.Contains(t, advice, "Nursing or lab tech?")

	_, err = p.Build(models.GenerationRequest{Kind: "poem"})
	assert.Error(t, err)
}

func TestPrompts_CustomTemplateErrors(t *testing.T) {
	p, err := NewPrompts(config.PromptTemplates{Roadmap: "{{.Missing}}"}, 5)
	require.NoError(t, err)

	_, err = p.Build(models.NewRoadmapRequest("u", []models.AssessmentAnswer{{QuestionText: "q", SelectedOption: "a"}}))
	assert.Error(t, err)
}

func TestStepSchema(t *testing.T) {
	schema, err := StepSchema()
	require.NoError(t, err)
	for _, field := range []string{"step_id", "name", "nsqf_level", "description", "duration", "resources", "skills", "completed"} {
		assert.True(t, strings.Contains(schema, `"`+field+`"`), "schema missing %s", field)
	}
	assert.Contains(t, schema, `"additionalProperties": false`)
}
