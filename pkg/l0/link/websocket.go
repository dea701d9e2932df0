package link

import (
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"
)

// DialWebsocket connects a websocket link. Bytes are carried in binary
// frames, a frame may hold any number of bytes.
func DialWebsocket(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	origin := *u
	origin.Scheme, origin.Path, origin.RawQuery = "http", "/", ""
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conn, err := websocket.Dial(rawURL, "", origin.String())
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// WebsocketHandler serves websocket links, calling fn for each one.
// The connection is closed when fn returns.
func WebsocketHandler(fn func(io.ReadWriteCloser)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		fn(conn)
	})
}
