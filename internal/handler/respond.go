package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmorgan81/imagestudio/internal/api"
	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/dmorgan81/imagestudio/internal/prompt"
	"github.com/dmorgan81/imagestudio/internal/share"
)

const (
	maxBodyBytes = 1 << 20

	msgBadJSON        = "Request body must be valid JSON"
	msgTooLarge       = "Request body too large"
	msgMissingPrompt  = "Prompt is required and must be a string"
	msgNotConfigured  = "Azure OpenAI configuration is missing. Please set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY environment variables."
	msgInvalidSize    = "Invalid size. Must be one of: 1024x1024, 1024x1792, 1792x1024"
	msgInvalidQuality = "Invalid quality. Must be 'standard' or 'hd'"
	msgInvalidStyle   = "Invalid style. Must be 'vivid' or 'natural'"
	msgProviderFailed = "Failed to generate image"
	msgNoImage        = "No image generated"
	msgInternal       = "Internal server error"
	msgShareDisabled  = "Sharing is not configured"
	msgBadImageURL    = "imageUrl must be an https URL served by the image provider"
	msgFetchFailed    = "Failed to fetch image"
	msgNoPrompts      = "No example prompts available"
	msgRateLimited    = "Too many requests"
	msgNotFound       = "Not found"
	msgMethod         = "Method not allowed"
)

var (
	errBadJSON     = errors.New("bad json")
	errTooLarge    = errors.New("request body too large")
	errRateLimited = errors.New("rate limited")
)

// statusError is an error whose status and message are decided at the
// failure site.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

// errorResponse maps a failure to the status code and the one-line message
// shown to the user.
func errorResponse(err error) (int, string) {
	var (
		serr  *statusError
		ierr  *image.InvalidParamError
		perr  *image.ProviderError
		ferr  *share.FetchError
		maxed *http.MaxBytesError
	)
	switch {
	case errors.As(err, &serr):
		return serr.status, serr.message
	case errors.Is(err, errTooLarge), errors.As(err, &maxed):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, msgBadJSON
	case errors.Is(err, image.ErrMissingPrompt):
		return http.StatusBadRequest, msgMissingPrompt
	case errors.Is(err, config.ErrProviderNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.As(err, &ierr):
		switch ierr.Param {
		case "size":
			return http.StatusBadRequest, msgInvalidSize
		case "quality":
			return http.StatusBadRequest, msgInvalidQuality
		default:
			return http.StatusBadRequest, msgInvalidStyle
		}
	case errors.As(err, &perr):
		status := perr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		if perr.Message == "" {
			return status, msgProviderFailed
		}
		return status, perr.Message
	case errors.Is(err, image.ErrNoImage):
		return http.StatusInternalServerError, msgNoImage
	case errors.Is(err, share.ErrDisabled):
		return http.StatusServiceUnavailable, msgShareDisabled
	case errors.Is(err, share.ErrInvalidImageURL):
		return http.StatusBadRequest, msgBadImageURL
	case errors.As(err, &ferr):
		return http.StatusBadGateway, msgFetchFailed
	case errors.Is(err, prompt.ErrNoPrompts):
		return http.StatusServiceUnavailable, msgNoPrompts
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorResponse(err)
	logger := log.FromContextOrDiscard(r.Context())
	if status >= 500 {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Info("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

type apiFunc func(r *http.Request) (any, error)

func wrap(f apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := f(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// decodeJSON reads exactly one JSON value from the request body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxed *http.MaxBytesError
		if errors.As(err, &maxed) {
			return errTooLarge
		}
		return errBadJSON
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errBadJSON
	}
	return nil
}
