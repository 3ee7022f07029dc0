package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge/pkg/models"
)

func TestRoadmap_Tracks(t *testing.T) {
	c := New("")

	tests := []struct {
		name      string
		answers   []models.AssessmentAnswer
		wantNames []string
		wantLevel []int
	}{
		{
			name: "manufacturing anywhere in answers",
			answers: []models.AssessmentAnswer{
				{QuestionText: "Q1", SelectedOption: "Reading"},
				{QuestionText: "Q2", SelectedOption: "Manufacturing & Engineering"},
			},
			wantNames: []string{"Basic Manufacturing Skills", "CNC Machine Operation", "Introduction to Automation"},
			wantLevel: []int{3, 4, 4},
		},
		{
			name:      "no answers",
			answers:   nil,
			wantNames: []string{"Digital Literacy Basics", "Career Path Exploration", "Foundational IT Skills"},
			wantLevel: []int{1, 2, 3},
		},
		{
			name:      "signal must match exactly",
			answers:   []models.AssessmentAnswer{{QuestionText: "Q", SelectedOption: "manufacturing & engineering"}},
			wantNames: []string{"Digital Literacy Basics", "Career Path Exploration", "Foundational IT Skills"},
			wantLevel: []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := c.Roadmap(tt.answers)
			require.Len(t, steps, 3)
			for i, s := range steps {
				assert.Equal(t, tt.wantNames[i], s.Name)
				assert.Equal(t, "step_"+string(rune('1'+i)), s.StepID)
				lvl, ok := s.NSQFLevel.Int()
				assert.True(t, ok)
				assert.Equal(t, tt.wantLevel[i], lvl)
				assert.False(t, s.Completed)
				assert.NotEmpty(t, s.Resources)
				assert.NotEmpty(t, s.Skills)
			}
		})
	}
}

func TestRoadmap_ReturnsFreshCopies(t *testing.T) {
	c := New(DefaultManufacturingSignal)
	first := c.Roadmap(nil)
	first[0].Name = "changed"
	first[0].Resources[0] = "changed"
	first[1].Completed = true

	second := c.Roadmap(nil)
	assert.Equal(t, "Digital Literacy Basics", second[0].Name)
	assert.Equal(t, "NIELIT CCC Course", second[0].Resources[0])
	assert.False(t, second[1].Completed)
}

func TestCustomSignal(t *testing.T) {
	c := New("Healthcare")
	assert.True(t, c.IsManufacturing([]models.AssessmentAnswer{{SelectedOption: "Healthcare"}}))
	assert.False(t, c.IsManufacturing([]models.AssessmentAnswer{{SelectedOption: DefaultManufacturingSignal}}))
}

func TestAdvice(t *testing.T) {
	assert.Equal(t, AdviceText, New("").Advice(nil))
}
