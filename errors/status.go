package errors

import "net/http"

// ClassifyStatus classifies err by the HTTP status code an upstream API
// answered with. Rate limits, conflicts, timeouts and 5xx are transient;
// authentication and missing-resource answers are fatal. Anything else,
// including code 0, is wrapped without a class.
func ClassifyStatus(code int, err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusConflict,
		code == http.StatusTooManyRequests, code >= 500:
		return Transient(err, format, a...)
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusNotFound:
		return Fatal(err, format, a...)
	default:
		return Wrapf(err, format, a...)
	}
}
