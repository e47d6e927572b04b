package agent

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"charm.land/fantasy"

	"github.com/dotcommander/agentgw/internal/errs"
)

// describe attaches a user-facing reason to a model failure. The message of
// the returned error is the provider's own.
func describe(err error, api string) error {
	var providerErr *fantasy.ProviderError
	if !errors.As(err, &providerErr) {
		return errs.Error{Err: err, Reason: fmt.Sprintf("There was a problem with the %s API request.", api)}
	}

	reason := fantasy.ErrorTitleForStatusCode(providerErr.StatusCode)
	switch {
	case providerErr.StatusCode == http.StatusNotFound:
		reason = fmt.Sprintf("Missing model for API '%s'.", api)
	case providerErr.StatusCode == http.StatusBadRequest && isContextLengthExceeded(providerErr):
		reason = "Maximum prompt size exceeded."
	case reason == "" && providerErr.IsRetryable():
		reason = "Retryable API error."
	case reason == "":
		reason = fmt.Sprintf("%s API request error.", api)
	}
	return errs.Error{Err: providerErr, Reason: reason}
}

func isContextLengthExceeded(err *fantasy.ProviderError) bool {
	if strings.Contains(strings.ToLower(err.Message), "context_length_exceeded") {
		return true
	}
	if strings.Contains(strings.ToLower(string(err.ResponseBody)), "context_length_exceeded") {
		return true
	}
	return false
}
