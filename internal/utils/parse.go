package utils

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// EncodeJSON marshals value to JSON. It exists so that callers in this module
// share one encode path with its error wrapping.
func EncodeJSON(value any) ([]byte, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal to JSON: %w", err)
	}
	return encoded, nil
}

// DecodeLenient unmarshals data into T. On a strict-decode failure it repairs
// the JSON with jsonrepair and retries once, which keeps slightly malformed
// payloads from OpenAI-compatible gateways from failing a run.
func DecodeLenient[T any](data []byte) (*T, error) {
	var decoded T
	strictErr := json.Unmarshal(data, &decoded)
	if strictErr == nil {
		return &decoded, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return nil, strictErr
	}

	if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
		return nil, strictErr
	}

	return &decoded, nil
}
