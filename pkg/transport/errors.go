package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/feed"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest, api.ErrorTypeNotSupported:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case api.ErrorTypeUpstream:
		return http.StatusBadGateway
	case api.ErrorTypeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AsAPIError converts any handler error to an APIError. Unsupported stream
// operations become not_supported errors. Other errors become server errors
// whose message is the error text when verbose is set and a generic message
// otherwise.
func AsAPIError(err error, verbose bool) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, feed.ErrUnsupportedOperation) {
		return api.NewNotSupportedError(err.Error())
	}
	if verbose {
		return api.NewServerError(err.Error())
	}
	return api.NewServerError("internal server error")
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Cache-Control")
	w.Header().Del("Expires")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteError writes any handler error. See AsAPIError for the conversion.
func WriteError(w http.ResponseWriter, err error, verbose bool) {
	WriteAPIError(w, AsAPIError(err, verbose))
}
