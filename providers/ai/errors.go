package ai

import (
	"errors"
	"fmt"

	"github.com/flowdeck/flowdeck/internal/utils"
)

// ServiceError is a structured failure returned by the generation service,
// decoded from its {"error": {"message": ...}} payload. Message is surfaced
// to the user verbatim.
type ServiceError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (serviceError *ServiceError) Error() string {
	if serviceError.Message != "" {
		return serviceError.Message
	}
	return fmt.Sprintf("generation service returned status %d", serviceError.StatusCode)
}

// errorResponse is the wire shape of a structured service failure.
type errorResponse struct {
	Error *errorPayload `json:"error"`
}

type errorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WrapServiceError turns a non-2xx *utils.HTTPError whose body decodes to a
// structured {"error": {"message": ...}} payload into an *ServiceError.
// Transport failures and undecodable bodies are returned unchanged, so their
// generic message is what reaches the user.
func WrapServiceError(err error) error {
	var httpError *utils.HTTPError
	if !errors.As(err, &httpError) {
		return err
	}

	payload, decodeErr := utils.DecodeLenient[errorResponse](httpError.Body)
	if decodeErr != nil || payload.Error == nil || payload.Error.Message == "" {
		return err
	}

	return &ServiceError{
		StatusCode: httpError.StatusCode,
		Message:    payload.Error.Message,
		Type:       payload.Error.Type,
		Code:       payload.Error.Code,
	}
}
