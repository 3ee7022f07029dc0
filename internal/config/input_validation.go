package config

import (
	"fmt"
	"net/url"
	"unicode"
)

const (
	// MaxModelNameLength is the maximum allowed length for model names
	MaxModelNameLength = 100

	// MaxTemplateSize is the maximum allowed size for template content
	MaxTemplateSize = 50 * 1024 // 50KB
)

// ValidateInputs performs additional security validation on user-controllable fields.
func (c *Config) ValidateInputs() error {
	if err := validateBaseURL(c.Provider.BaseURL, "provider"); err != nil {
		return err
	}

	for _, candidate := range c.Generation.ModelCandidates {
		if err := ValidateModelName(candidate); err != nil {
			return fmt.Errorf("generation.model_candidates: %w", err)
		}
	}

	for name, mc := range c.Models {
		if mc.ModelName != "" {
			if err := ValidateModelName(mc.ModelName); err != nil {
				return fmt.Errorf("models.%s: %w", name, err)
			}
		}
		if mc.BaseURL != "" {
			if err := validateBaseURL(mc.BaseURL, "models."+name); err != nil {
				return err
			}
		}
	}

	if err := validateBaseURL(c.Assessment.BaseURL, "assessment"); err != nil {
		return err
	}

	if err := c.validateTemplateSizes(); err != nil {
		return err
	}

	return nil
}

// ValidateModelName checks a model identifier before it is sent to a provider
func ValidateModelName(modelName string) error {
	if modelName == "" {
		return fmt.Errorf("model name is empty")
	}
	if len(modelName) > MaxModelNameLength {
		return fmt.Errorf("model name exceeds maximum length of %d (got %d)",
			MaxModelNameLength, len(modelName))
	}
	for _, r := range modelName {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("model name %q contains whitespace or control characters", modelName)
		}
	}
	return nil
}

// validateBaseURL checks that the base URL is properly formatted and safe
func validateBaseURL(baseURL, configKey string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%s has invalid base_url: %w", configKey, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s base_url must use http or https scheme (got %s)",
			configKey, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%s base_url must have a host", configKey)
	}

	return nil
}

// validateTemplateSizes checks that templates are within reasonable size limits
func (c *Config) validateTemplateSizes() error {
	templates := []struct {
		name  string
		value string
	}{
		{"roadmap", c.PromptTemplates.Roadmap},
		{"general_roadmap", c.PromptTemplates.GeneralRoadmap},
		{"advice", c.PromptTemplates.Advice},
	}

	for _, tmpl := range templates {
		if len(tmpl.value) > MaxTemplateSize {
			return fmt.Errorf("template '%s' exceeds maximum size of %d bytes (got %d)",
				tmpl.name, MaxTemplateSize, len(tmpl.value))
		}
		if containsControlChars(tmpl.value) {
			return fmt.Errorf("template '%s' contains invalid control characters", tmpl.name)
		}
	}

	return nil
}

// containsControlChars checks if a string contains control characters
// (excluding newlines, tabs, and carriage returns which are acceptable)
func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
