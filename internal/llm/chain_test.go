package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge/internal/llm"
	"github.com/pathforge/pathforge/internal/llm/llmtest"
)

var defaultCandidates = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.0-pro"}

func TestChain_SelectsFirstInstantiable(t *testing.T) {
	provider := llmtest.NewProvider(llmtest.Text("ok"))
	chain := llm.NewChain(provider, defaultCandidates)

	model, err := chain.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", model.ID())
}

func TestChain_SkipsUninstantiable(t *testing.T) {
	provider := llmtest.NewProvider(llmtest.Text("ok")).Unavailable("gemini-1.5-flash")
	chain := llm.NewChain(provider, defaultCandidates)

	text, model, err := chain.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", model.ID())
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"gemini-1.5-pro"}, provider.ModelsUsed())
}

func TestChain_AllUnavailable(t *testing.T) {
	provider := llmtest.NewProvider().Unavailable(defaultCandidates...)
	chain := llm.NewChain(provider, defaultCandidates)

	_, err := chain.Select(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrModelUnavailable))

	var unavailable *llm.UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Len(t, unavailable.Failures, 3)
	assert.Equal(t, "gemini-1.0-pro", unavailable.Failures[2].Model)
	assert.Zero(t, provider.Calls())
}

func TestChain_GenerationErrorNotRetriedOnNextCandidate(t *testing.T) {
	provider := llmtest.NewProvider(llmtest.Fail("internal"), llmtest.Text("never"))
	chain := llm.NewChain(provider, defaultCandidates)

	_, model, err := chain.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, llm.IsModelError(err))
	assert.False(t, llm.IsQuotaExceeded(err))
	assert.Equal(t, "gemini-1.5-flash", model.ID())
	assert.Equal(t, 1, provider.Calls())
}

func TestChain_QuotaErrorSurfaces(t *testing.T) {
	provider := llmtest.NewProvider(llmtest.Quota())
	chain := llm.NewChain(provider, defaultCandidates)

	_, _, err := chain.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, llm.IsQuotaExceeded(err))
}

func TestChain_Discovery(t *testing.T) {
	tests := []struct {
		name      string
		discover  bool
		listed    []string
		listErr   error
		wantModel string
	}{
		{
			name:      "discovers first usable listed model",
			discover:  true,
			listed:    []string{"gemini-1.5-flash", "models/gemini-2.0-flash", "models/other"},
			wantModel: "models/gemini-2.0-flash",
		},
		{
			name:     "discovery disabled",
			discover: false,
			listed:   []string{"models/gemini-2.0-flash"},
		},
		{
			name:     "listing fails",
			discover: true,
			listErr:  errors.New("network down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llmtest.NewProvider(llmtest.Text("ok")).
				Unavailable(defaultCandidates...).
				Lists(tt.listed, tt.listErr)
			chain := llm.NewChain(provider, defaultCandidates, llm.WithDiscovery(tt.discover))

			model, err := chain.Select(context.Background())
			if tt.wantModel == "" {
				assert.ErrorIs(t, err, llm.ErrModelUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, model.ID())
		})
	}
}

func TestChain_Probe(t *testing.T) {
	provider := llmtest.NewProvider().Unavailable("gemini-1.5-pro")
	chain := llm.NewChain(provider, defaultCandidates)

	statuses := chain.Probe()
	require.Len(t, statuses, 3)
	assert.NoError(t, statuses[0].Err)
	assert.Error(t, statuses[1].Err)
	assert.NoError(t, statuses[2].Err)
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("boom")

	quota := llm.NewQuotaExceededError("m", base)
	assert.True(t, llm.IsQuotaExceeded(quota))
	assert.ErrorIs(t, quota, base)

	modelErr := llm.NewModelError("m", base)
	assert.True(t, llm.IsModelError(modelErr))
	assert.False(t, llm.IsQuotaExceeded(modelErr))
	assert.Contains(t, modelErr.Error(), "model m failed")
}
