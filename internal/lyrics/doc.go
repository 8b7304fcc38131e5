// Package lyrics resolves song lyrics through a fixed provider chain. The
// synced provider (LRCLIB) runs first so timestamped text wins when
// available; plain-text providers follow. Provider failures are logged and
// skipped, never fatal.
package lyrics
