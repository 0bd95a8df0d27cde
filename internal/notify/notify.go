// Package notify maps fetch failures to user facing copy and delivers
// feedback messages to whatever presents them.
package notify

import (
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/lfarina18/metafar-challenge/internal/schema"
)

// Notifier presents short feedback messages to the user.
type Notifier interface {
	Error(msg string)
	Info(msg string)
	Success(msg string)
}

// Fixed copy.
const (
	MsgUnexpected   = "An unexpected error occurred. Please reload the page."
	MsgServiceDown  = "The service is having trouble right now. Please try again later."
	MsgBadRequest   = "The request could not be processed with the data entered. Try another date or interval."
	MsgUnauthorized = "Access to the service could not be validated. Check the configuration and try again."
	MsgForbidden    = "Your account is not allowed to access this information."
	MsgNotFound     = "No information was found for your search."
	MsgURITooLong   = "The value entered is too long. Shorten it and try again."
	MsgTooMany      = "Too many requests in a short time. Wait a few seconds and try again."
	MsgGeneric      = "An error occurred while processing the request. Please try again."
	MsgSearchFailed = "Could not search symbols. Please try again."
	MsgNoData       = "No data for the current time range."
	MsgChartLoading = "Loading chart..."
	MsgChartUpdated = "Chart updated"
)

type statusCoder interface{ HTTPStatus() int }

// Status extracts the HTTP or envelope status carried by err, or 0.
func Status(err error) int {
	var s statusCoder
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return 0
}

// PublicMessage selects user facing copy for err by its status code. Schema
// failures get the support message instead.
func PublicMessage(err error) string {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return schema.PublicMessage
	}
	status := Status(err)
	if status == 0 {
		return MsgUnexpected
	}
	if status >= 500 {
		return MsgServiceDown
	}
	switch status {
	case 400:
		return MsgBadRequest
	case 401:
		return MsgUnauthorized
	case 403:
		return MsgForbidden
	case 404:
		return MsgNotFound
	case 414:
		return MsgURITooLong
	case 429:
		return MsgTooMany
	default:
		return MsgGeneric
	}
}

var noData = regexp.MustCompile(`(?i)no\s+data`)

// IsNoData reports whether err means the upstream has nothing for the
// requested window, which is an expected state rather than a failure.
func IsNoData(err error) bool {
	var apiErr *schema.ApiError
	if errors.As(err, &apiErr) {
		if noData.MatchString(apiErr.RawMessage) || apiErr.Code == 404 {
			return true
		}
	}
	var s statusCoder
	if errors.As(err, &s) && s.HTTPStatus() == 404 {
		return true
	}
	return false
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

func (n LogNotifier) Error(msg string)   { n.logger().Error(msg, zap.String("notify", "error")) }
func (n LogNotifier) Info(msg string)    { n.logger().Info(msg, zap.String("notify", "info")) }
func (n LogNotifier) Success(msg string) { n.logger().Info(msg, zap.String("notify", "success")) }

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Error(string)   {}
func (discard) Info(string)    {}
func (discard) Success(string) {}
