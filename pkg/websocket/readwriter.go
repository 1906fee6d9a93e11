package websocket

import "golang.org/x/net/websocket"

// ReadWriter reads/writes binary packets over a websocket connection.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Conn returns the underlying connection.
func (p *ReadWriter) Conn() *websocket.Conn {
	return (*websocket.Conn)(p)
}

// ReadPacket reads the next frame.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn(), &pkt)
	return
}

// WritePacket writes pkt as a binary frame.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn(), pkt)
}

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return p.Conn().Close()
}
