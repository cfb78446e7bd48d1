package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNoSubmission = errors.New("no submission found; pass --submission-id")

// ReadJSONInput accepts inline JSON or a path to a JSON file
func ReadJSONInput(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	var data []byte
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		data = []byte(trimmed)
	} else {
		var err error
		data, err = os.ReadFile(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", trimmed, err)
		}
	}
	if !json.Valid(bytes.TrimSpace(data)) {
		return nil, fmt.Errorf("%s is not valid JSON", describeInput(trimmed))
	}
	return data, nil
}

// DecodeJSONInput reads value with ReadJSONInput and decodes it into v
func DecodeJSONInput(value string, v any) error {
	data, err := ReadJSONInput(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", describeInput(value), err)
	}
	return nil
}

func describeInput(value string) string {
	if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
		return "inline input"
	}
	return value
}

// MaskSecret hides all but the ends of a secret
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
