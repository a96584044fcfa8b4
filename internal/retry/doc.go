// Package retry wraps calls to the spreadsheet data source in exponential
// backoff.
//
// Only transient failures are retried: HTTP 429 and 5xx answers of the
// Google APIs and network timeouts. Everything else, and the last error
// after the attempts are exhausted, is returned to the caller unchanged.
package retry
