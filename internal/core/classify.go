package core

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/openai/openai-go"
	"google.golang.org/api/googleapi"
)

type failureClass int

const (
	failureOther failureClass = iota
	failureTransient
	failureNetwork
)

// classifyModelError sorts an upstream model failure into transient overload,
// connectivity loss or anything else. Structured status codes are consulted
// first, message substrings are the fallback for untyped errors.
func classifyModelError(err error) failureClass {
	if code, ok := statusCode(err); ok {
		if code == http.StatusServiceUnavailable {
			return failureTransient
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return failureNetwork
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "overloaded") || strings.Contains(msg, "503") {
		return failureTransient
	}
	if isNetworkMessage(msg) {
		return failureNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return failureNetwork
	}
	return failureOther
}

func isNetworkMessage(msg string) bool {
	return strings.Contains(msg, "network") ||
		strings.Contains(msg, "internet") ||
		strings.Contains(msg, "unable to resolve host")
}

func statusCode(err error) (int, bool) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPCode() > 0 {
		return apiErr.HTTPCode(), true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, true
	}
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return oaErr.StatusCode, true
	}
	return 0, false
}
