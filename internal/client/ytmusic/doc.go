// Package ytmusic is a minimal YouTube Music search client speaking the
// public InnerTube endpoint with the WEB_REMIX client context. Only the
// songs-filtered search surface is implemented; responses are walked as
// generic JSON because the renderer tree has no stable schema.
package ytmusic
