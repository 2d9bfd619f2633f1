// Package ocpi provides the OCPI response envelope and the request headers
// shared by every OCPI endpoint.
//
// OCPI carries business outcomes in the body: a request rejected for a blocked
// credential still answers HTTP 200 with a 2xxx status_code.
package ocpi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusCode is the OCPI status_code of a response body.
type StatusCode int

const (
	// StatusSuccess is the generic success code.
	StatusSuccess StatusCode = 1000

	// StatusClientError is the generic client error, also used for rejected credentials.
	StatusClientError StatusCode = 2000
	// StatusInvalidParameters indicates missing or malformed parameters.
	StatusInvalidParameters StatusCode = 2001
	// StatusNotEnoughInformation indicates the request lacks required data.
	StatusNotEnoughInformation StatusCode = 2002
	// StatusUnknownLocation indicates a referenced object does not exist.
	StatusUnknownLocation StatusCode = 2003

	// StatusServerError is the generic server error.
	StatusServerError StatusCode = 3000
)

// Messages used by the version discovery endpoints.
const (
	MessageHelloWorld   = "Hello world!"
	MessageBlockedToken = "Invalid or blocked access token!"
)

// Response is the OCPI envelope.
type Response struct {
	Data          any        `json:"data,omitempty"`
	StatusCode    StatusCode `json:"status_code"`
	StatusMessage string     `json:"status_message,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Now is the clock used for envelope timestamps.
var Now = func() time.Time { return time.Now().UTC() }

// statusCodeKey stores the written status_code on the gin context.
const statusCodeKey = "ocpi.status_code"

// StatusCodeFromContext returns the status_code of the envelope written for
// this request, if any.
func StatusCodeFromContext(c *gin.Context) (StatusCode, bool) {
	v, ok := c.Get(statusCodeKey)
	if !ok {
		return 0, false
	}
	code, ok := v.(StatusCode)
	return code, ok
}

// Success writes a 1000 envelope with data over HTTP 200.
func Success(c *gin.Context, data any, message string) {
	c.Set(statusCodeKey, StatusSuccess)
	c.JSON(http.StatusOK, Response{
		Data:          data,
		StatusCode:    StatusSuccess,
		StatusMessage: message,
		Timestamp:     Now(),
	})
}

// Error writes an envelope without data. Client errors travel over HTTP 200;
// server errors over HTTP 500.
func Error(c *gin.Context, code StatusCode, message string) {
	httpStatus := http.StatusOK
	if code >= StatusServerError {
		httpStatus = http.StatusInternalServerError
	}
	ErrorWithStatus(c, httpStatus, code, message)
}

// ErrorWithStatus writes an envelope without data over an explicit HTTP
// status, for transport level rejections such as throttling.
func ErrorWithStatus(c *gin.Context, httpStatus int, code StatusCode, message string) {
	c.Set(statusCodeKey, code)
	c.JSON(httpStatus, Response{
		StatusCode:    code,
		StatusMessage: message,
		Timestamp:     Now(),
	})
}
