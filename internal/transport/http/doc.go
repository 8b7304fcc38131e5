// Package http provides HTTP round-tripper middleware shared by the
// YouTube Music client, the lyrics providers, and cover downloads:
// a User-Agent injector and a debug-level request/response logger.
package http
