package handlers

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	userIDRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// sanitizeMessage strips control characters and script tags from user
// input and rejects degenerate content before it reaches the pipeline.
func sanitizeMessage(message string) (string, error) {
	message = scriptTagRegex.ReplaceAllString(message, "")

	var b strings.Builder
	b.Grow(len(message))
	for _, r := range message {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		if r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())

	if cleaned == "" {
		return "", fmt.Errorf("message is empty")
	}
	if isRepetitive(cleaned) {
		return "", fmt.Errorf("message content is repetitive")
	}

	return cleaned, nil
}

// isRepetitive flags long messages made of one short token repeated
// over and over, a common spam shape.
func isRepetitive(message string) bool {
	if len(message) < 50 {
		return false
	}

	fields := strings.Fields(message)
	if len(fields) < 10 {
		return false
	}

	unique := map[string]bool{}
	for _, f := range fields {
		unique[strings.ToLower(f)] = true
	}

	return len(unique)*5 <= len(fields)
}

// validateUserID enforces the allowed user identifier charset.
func validateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !userIDRegex.MatchString(userID) {
		return fmt.Errorf("user_id may only contain letters, digits, '_' and '-'")
	}
	return nil
}
