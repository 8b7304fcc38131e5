package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dkrasnov/spotiport/internal/logger"
)

// cookieFilePermissions keeps the exported session private to the user.
const cookieFilePermissions = 0o600

// cookieDomainSuffixes lists the domains yt-dlp needs for an authenticated
// session: the YouTube cookies plus the Google account cookies they depend on.
var cookieDomainSuffixes = []string{"youtube.com", "google.com"}

// exportedCookie is one browser cookie reduced to the fields the Netscape
// format carries.
type exportedCookie struct {
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	// ExpiresUnix is the expiry as a Unix timestamp; zero for session cookies.
	ExpiresUnix int64
	Name        string
	Value       string
}

// exportCookies writes the relevant browser cookies to a Netscape cookies.txt.
func (s *ServiceImpl) exportCookies(ctx context.Context, outputPath string) error {
	logger.Info(ctx, "Extracting session cookies from browser...")

	cookieURLs := []string{
		youtubeMusicURL,
		"https://www.youtube.com/",
		"https://accounts.google.com/",
	}

	cookies, err := s.page.Cookies(cookieURLs)
	if err != nil {
		return fmt.Errorf("failed to read browser cookies: %w", err)
	}

	logger.Debugf(ctx, "Found %d cookies", len(cookies))

	var exported []exportedCookie

	for _, cookie := range cookies {
		if !relevantCookieDomain(cookie.Domain) {
			continue
		}

		var expiresUnix int64
		if cookie.Expires > 0 {
			expiresUnix = int64(cookie.Expires)
		}

		exported = append(exported, exportedCookie{
			Domain:      cookie.Domain,
			Path:        cookie.Path,
			Secure:      cookie.Secure,
			HTTPOnly:    cookie.HTTPOnly,
			ExpiresUnix: expiresUnix,
			Name:        cookie.Name,
			Value:       cookie.Value,
		})
	}

	if len(exported) == 0 {
		return ErrNoSessionCookies
	}

	logger.Debugf(ctx, "Exporting %d cookie(s)", len(exported))

	content := renderNetscapeFile(exported)

	if err = os.WriteFile(outputPath, []byte(content), cookieFilePermissions); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}

	return nil
}

// relevantCookieDomain reports whether a cookie domain belongs to the
// YouTube or Google account session.
func relevantCookieDomain(domain string) bool {
	trimmed := strings.TrimPrefix(domain, ".")

	for _, suffix := range cookieDomainSuffixes {
		if trimmed == suffix || strings.HasSuffix(trimmed, "."+suffix) {
			return true
		}
	}

	return false
}

// renderNetscapeFile renders cookies in the cookies.txt format yt-dlp reads.
func renderNetscapeFile(cookies []exportedCookie) string {
	var builder strings.Builder

	builder.WriteString("# Netscape HTTP Cookie File\n")
	builder.WriteString("# https://curl.se/docs/http-cookies.html\n")
	builder.WriteString("# This file was generated by spotiport auth. Do not edit.\n\n")

	for _, cookie := range cookies {
		builder.WriteString(netscapeLine(cookie))
		builder.WriteString("\n")
	}

	return builder.String()
}

// netscapeLine renders one cookie line. HTTP-only cookies carry the
// #HttpOnly_ prefix recognized by curl and yt-dlp.
func netscapeLine(cookie exportedCookie) string {
	domain := cookie.Domain
	if cookie.HTTPOnly {
		domain = "#HttpOnly_" + domain
	}

	includeSubdomains := "FALSE"
	if strings.HasPrefix(cookie.Domain, ".") {
		includeSubdomains = "TRUE"
	}

	secure := "FALSE"
	if cookie.Secure {
		secure = "TRUE"
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\t%s",
		domain, includeSubdomains, cookie.Path, secure, cookie.ExpiresUnix, cookie.Name, cookie.Value)
}
