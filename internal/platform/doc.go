// Package platform contains OS integration and external tooling glue:
// download directory layout, URL checks, and playlist expansion through
// the ytdlp library.
package platform
