package ytmusic

const (
	// searchEndpoint is the InnerTube search endpoint of the web player.
	searchEndpoint = "https://music.youtube.com/youtubei/v1/search?prettyPrint=false"
	// clientName is the InnerTube client identity of the web player.
	clientName = "WEB_REMIX"
	// clientVersion is a recent web player version; the endpoint only
	// checks the date prefix for feature gating.
	clientVersion = "1.20240501.01.00"
	// songsFilterParam restricts search results to the Songs shelf.
	songsFilterParam = "EgWKAQIIAWoMEA4QChADEAQQCRAF"
	// originHeader is required by the endpoint for cross-origin POSTs.
	originHeader = "https://music.youtube.com"
	// watchURLPrefix builds a playable URL from a video id.
	watchURLPrefix = "https://music.youtube.com/watch?v="
)
