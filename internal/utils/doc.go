// Package utils provides small shared helpers: JSON-over-HTTP request
// functions with bearer authentication, lenient JSON decoding, string
// truncation and pointer construction.
package utils
