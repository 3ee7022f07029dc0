// Package fallback holds the canned roadmaps and advice returned when no
// model produces a usable answer.
package fallback

import (
	"strings"

	"github.com/pathforge/pathforge/pkg/models"
)

// DefaultManufacturingSignal selects the manufacturing track
const DefaultManufacturingSignal = "Manufacturing & Engineering"

// AdviceText is returned when advice generation fails
const AdviceText = "I'm here to help with career guidance! Could you please rephrase your question? " +
	"For personalized guidance, consult a career counselor."

// Catalog picks a canned response for a set of assessment answers
type Catalog struct {
	signal string
}

// New creates a catalog. An empty signal uses DefaultManufacturingSignal.
func New(signal string) *Catalog {
	if strings.TrimSpace(signal) == "" {
		signal = DefaultManufacturingSignal
	}
	return &Catalog{signal: signal}
}

// IsManufacturing reports whether any answer selected the manufacturing option
func (c *Catalog) IsManufacturing(answers []models.AssessmentAnswer) bool {
	for _, a := range answers {
		if a.SelectedOption == c.signal {
			return true
		}
	}
	return false
}

// Roadmap returns a fresh copy of the matching track
func (c *Catalog) Roadmap(answers []models.AssessmentAnswer) []models.RoadmapStep {
	if c.IsManufacturing(answers) {
		return manufacturingTrack()
	}
	return generalTrack()
}

// Advice returns the canned advice text
func (c *Catalog) Advice(_ []models.AssessmentAnswer) string {
	return AdviceText
}

func manufacturingTrack() []models.RoadmapStep {
	return []models.RoadmapStep{
		{
			StepID:      "step_1",
			Name:        "Basic Manufacturing Skills",
			NSQFLevel:   models.Level(3),
			Description: "Learn foundational manufacturing processes, tools, and safety protocols for shop-floor roles.",
			Duration:    "1 month",
			Resources:   []string{"PMKVY Manufacturing Course", "NSDC Skill Training", "SWAYAM Industrial Skills", "ITI Manufacturing Modules"},
			Skills:      []string{"Manufacturing Processes", "Workplace Safety", "Tool Handling"},
		},
		{
			StepID:      "step_2",
			Name:        "CNC Machine Operation",
			NSQFLevel:   models.Level(4),
			Description: "Master CNC machine operation and basic programming for precision manufacturing.",
			Duration:    "2 months",
			Resources:   []string{"PMKVY CNC Operator Course", "NIELIT CNC Training", "SWAYAM CAD/CAM Basics", "NSDC Skill Centers"},
			Skills:      []string{"CNC Operation", "Basic CAD/CAM", "Precision Manufacturing"},
		},
		{
			StepID:      "step_3",
			Name:        "Introduction to Automation",
			NSQFLevel:   models.Level(4),
			Description: "Understand industrial automation, PLC basics, and IoT applications in manufacturing.",
			Duration:    "6 weeks",
			Resources:   []string{"Siemens Mechatronics Certification", "PMKVY Automation Course", "SWAYAM IoT Basics", "NIELIT PLC Training"},
			Skills:      []string{"PLC Basics", "Industrial Automation", "IoT Awareness"},
		},
	}
}

func generalTrack() []models.RoadmapStep {
	return []models.RoadmapStep{
		{
			StepID:      "step_1",
			Name:        "Digital Literacy Basics",
			NSQFLevel:   models.Level(1),
			Description: "Master basic computer operations, MS Office, and internet navigation for professional use.",
			Duration:    "2 weeks",
			Resources:   []string{"NIELIT CCC Course", "Microsoft Digital Literacy", "Skill India Portal"},
			Skills:      []string{"Computer Basics", "MS Office", "Internet Navigation"},
		},
		{
			StepID:      "step_2",
			Name:        "Career Path Exploration",
			NSQFLevel:   models.Level(2),
			Description: "Explore career options and understand industry requirements in India.",
			Duration:    "1 week",
			Resources:   []string{"SWAYAM Career Guidance", "NSDC Skill Finder", "LinkedIn Learning"},
			Skills:      []string{"Career Planning", "Industry Awareness"},
		},
		{
			StepID:      "step_3",
			Name:        "Foundational IT Skills",
			NSQFLevel:   models.Level(3),
			Description: "Learn basic programming concepts and IT fundamentals to prepare for technical roles.",
			Duration:    "2 months",
			Resources:   []string{"PMKVY IT Courses", "NIELIT IT Literacy", "Coursera IT Fundamentals"},
			Skills:      []string{"Basic Programming", "IT Fundamentals"},
		},
	}
}
