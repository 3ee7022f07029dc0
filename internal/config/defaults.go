package config

// GetDefaultRoadmapTemplate returns the default template for assessment-based roadmaps
func GetDefaultRoadmapTemplate() string {
	return `Generate a personalized vocational training roadmap aligned with India's NSQF framework based on this user's career assessment.

USER ASSESSMENT:
{{range .Answers}}Q: {{.QuestionText}}
A: {{.SelectedOption}}
{{end}}
Requirements:
- JSON array of 6-8 progressive steps
- Each step includes:
  - step_id: unique identifier (format: "step_1", "step_2", etc.)
  - name: clear, actionable step name
  - nsqf_level: NSQF level 1-10 (progressive)
  - description: 2-3 sentences about what they'll learn
  - duration: realistic timeframe (e.g., "2 weeks", "1 month")
  - resources: 3-4 specific Indian training resources (e.g., NIELIT, PMKVY, SWAYAM)
  - skills: 2-3 key skills gained
  - completed: false
- Focus on employable skills for Indian job market (e.g., IT, healthcare, manufacturing)
- Include relevant certifications
- Ensure steps are actionable and progressive

Each array element must match this JSON Schema:
{{.Schema}}

Return ONLY a valid JSON array (no markdown, no additional text).`
}

// GetDefaultGeneralRoadmapTemplate returns the template used when no assessment is available
func GetDefaultGeneralRoadmapTemplate() string {
	return `Generate a general vocational training roadmap for Indian youth aligned with NSQF framework.

Requirements:
- JSON array of 6 progressive steps
- Each step includes:
  - step_id: unique identifier
  - name, nsqf_level (1-10), description, duration, resources, skills, completed: false
- Focus on employable skills for Indian job market

Each array element must match this JSON Schema:
{{.Schema}}

Return ONLY a valid JSON array (no markdown, no additional text).`
}

// GetDefaultAdviceTemplate returns the default template for career advice chat
func GetDefaultAdviceTemplate() string {
	return `You are a career counselor for Indian youth aligned with NSQF framework.
{{if .Answers}}USER ASSESSMENT:
{{range .Answers}}- {{.QuestionText}}: {{.SelectedOption}}
{{end}}{{end}}USER QUESTION: {{.Message}}
Provide personalized career advice with:
- Actionable steps
- Relevant Indian training programs (NIELIT, PMKVY, etc.)
- NSQF-aligned certifications
- Focus on employability in Indian job market
Keep response concise (200-300 words) and encouraging.
End with: "For personalized guidance, consult a career counselor."`
}
