// Package ytdlp wraps the yt-dlp command line for metadata lookups and media
// downloads. URLs are validated before any process is started and every
// invocation passes the URL after a "--" separator.
package ytdlp
