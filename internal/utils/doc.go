// Package utils provides small shared helpers: filename sanitization,
// slice transforms, filesystem checks, and HTTP content-type classification.
package utils
