// Package draft builds pick/ban lobby links for the external draft site.
package draft

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// roomAlphabet omits visually ambiguous characters (I, O, l, 0, 1).
	roomAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	roomIDLength = 8

	DefaultBaseURL = "https://lolprodraft.com/draft"
)

// NewRoomID returns a random draft room identifier.
func NewRoomID() (string, error) {
	buf := make([]byte, roomIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, roomIDLength)
	for i, b := range buf {
		out[i] = roomAlphabet[int(b)%len(roomAlphabet)]
	}
	return string(out), nil
}

// Links holds the four per-audience URLs of one draft room.
type Links struct {
	Blue     string
	Red      string
	Spectate string
	Stream   string
}

// Build assembles the room URLs the draft site expects. Team names ride in
// the query string on every variant so the site can label both sides.
func Build(baseURL, roomID, blueName, redName string) Links {
	base := strings.TrimSuffix(baseURL, "/") + "/" + roomID
	query := "?ROOM_ID=" + roomID +
		"&blueName=" + encodeComponent(blueName) +
		"&redName=" + encodeComponent(redName)

	return Links{
		Blue:     base + "/blue" + query,
		Red:      base + "/red" + query,
		Spectate: base + query,
		Stream:   base + "/stream" + query,
	}
}

// encodeComponent percent-encodes like a browser's encodeURIComponent:
// everything except unreserved characters and !'()*-._~ is escaped.
func encodeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '~' ||
			c == '!' || c == '\'' || c == '(' || c == ')' || c == '*':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}
