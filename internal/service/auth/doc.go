// Package auth captures YouTube session cookies through a real browser
// login and exports them in Netscape cookies.txt format for yt-dlp.
package auth
