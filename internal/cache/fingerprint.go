package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pathforge/pathforge/pkg/models"
)

// fingerprintVersion changes whenever the canonical form does
const fingerprintVersion = 1

type canonicalAnswer struct {
	Question string `json:"q"`
	Option   string `json:"a"`
}

type canonicalRequest struct {
	Version int               `json:"v"`
	UserID  string            `json:"user_id"`
	Kind    string            `json:"kind"`
	Answers []canonicalAnswer `json:"answers"`
	Message string            `json:"message"`
}

// Fingerprint returns the hex SHA-256 of a canonical encoding of the request.
// Answers keep their order; surrounding whitespace is ignored.
func Fingerprint(req models.GenerationRequest) string {
	canonical := canonicalRequest{
		Version: fingerprintVersion,
		UserID:  strings.TrimSpace(req.UserID),
		Kind:    string(req.Kind),
		Answers: make([]canonicalAnswer, 0, len(req.Answers)),
		Message: strings.TrimSpace(req.UserMessage),
	}
	for _, a := range req.Answers {
		canonical.Answers = append(canonical.Answers, canonicalAnswer{
			Question: strings.TrimSpace(a.QuestionText),
			Option:   strings.TrimSpace(a.SelectedOption),
		})
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		// Only strings and ints are encoded; Marshal cannot fail here
		panic("cache: fingerprint encoding failed: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
