// Package source defines the stock source boundary and its Amul shop API
// implementation.
//
// SourceError carries the HTTP status (when there is one) and decides
// retryability for the retry executor right where the raw transport failure
// is caught.
package source
