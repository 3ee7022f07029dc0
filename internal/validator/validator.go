// Package validator turns raw model output into roadmap steps or advice text.
package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pathforge/pathforge/internal/util"
	"github.com/pathforge/pathforge/pkg/models"
)

// ErrMalformedResponse is returned when model output cannot be used.
// Retrying the same prompt is not expected to help.
var ErrMalformedResponse = errors.New("malformed model response")

const fence = "```"

// Matches an opening fence with an optional language hint such as ```json
var openingFenceRegex = regexp.MustCompile("^```[A-Za-z0-9_+.-]*[ \t]*\r?\n?")

// StripFences removes one leading code fence line and one trailing fence.
// Text that does not start with a fence is only trimmed.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	s = openingFenceRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// ParseRoadmap parses a JSON array of step objects and fills defaults for
// absent keys. Field values of any JSON type are kept: scalars become their
// text, a lone value where a list is expected becomes a one-item list.
func ParseRoadmap(raw string) ([]models.RoadmapStep, error) {
	body := StripFences(raw)

	count, err := validateJSONArray(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: no steps in response", ErrMalformedResponse)
	}

	var objects []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &objects); err != nil {
		return nil, fmt.Errorf("%w: steps must be objects: %v", ErrMalformedResponse, err)
	}

	steps := make([]models.RoadmapStep, len(objects))
	for i, fields := range objects {
		if fields == nil {
			return nil, fmt.Errorf("%w: step %d is null", ErrMalformedResponse, i+1)
		}
		steps[i] = decodeStep(i, fields)
	}
	return steps, nil
}

// decodeStep builds step i from its raw fields. A missing or null step_id
// becomes step_<i+1>; missing skills and resources become empty lists.
func decodeStep(i int, fields map[string]json.RawMessage) models.RoadmapStep {
	step := models.RoadmapStep{
		StepID:      fmt.Sprintf("step_%d", i+1),
		Name:        textValue(fields["name"]),
		Description: textValue(fields["description"]),
		Duration:    textValue(fields["duration"]),
		Resources:   listValue(fields["resources"]),
		Skills:      listValue(fields["skills"]),
		Completed:   flagValue(fields["completed"]),
	}
	if v, ok := fields["step_id"]; ok && !isNull(v) {
		step.StepID = textValue(v)
	}
	if v, ok := fields["nsqf_level"]; ok {
		_ = step.NSQFLevel.UnmarshalJSON(v)
	}
	return step
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || string(v) == "null"
}

// textValue returns a JSON string's contents, or the compact JSON text of
// any other value. Null and absent values are empty.
func textValue(v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

// listValue turns an array into one text per element and any other non-null
// value into a one-item list
func listValue(v json.RawMessage) []string {
	if isNull(v) {
		return []string{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return []string{textValue(v)}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, textValue(item))
	}
	return out
}

// flagValue accepts JSON booleans and boolean strings such as "true"
func flagValue(v json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(textValue(v)))
	return err == nil && parsed
}

// ParseAdvice strips reasoning tags and surrounding whitespace.
// Empty advice is malformed.
func ParseAdvice(raw string) (string, error) {
	text := util.StripThinkTags(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty advice", ErrMalformedResponse)
	}
	return text, nil
}

// validateJSONArray checks syntax and returns the element count
func validateJSONArray(body string) (int, error) {
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return 0, fmt.Errorf("not a JSON array: missing brackets")
	}
	if !json.Valid([]byte(body)) {
		return 0, fmt.Errorf("invalid JSON syntax")
	}
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(body), &arr); err != nil {
		return 0, fmt.Errorf("failed to parse array: %w", err)
	}
	return len(arr), nil
}
