package rabbitmq

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
)

const (
	frameMethod = 1
	frameBody   = 3
	frameEnd    = 0xCE
)

type delivery struct {
	exchange   string
	routingKey string
	body       []byte
}

// broker speaks just enough AMQP 0-9-1 to open and close a connection and
// one channel, and records basic.publish deliveries.
type broker struct {
	ln net.Listener

	mu         sync.Mutex
	conns      []net.Conn
	deliveries []delivery
}

func startBroker(t *testing.T) *broker {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	b := &broker{ln: ln}
	t.Cleanup(func() {
		_ = ln.Close()
		b.dropAll()
	})
	go b.accept()
	return b
}

func (b *broker) url() string {
	return "amqp://guest:guest@" + b.ln.Addr().String() + "/"
}

func (b *broker) accept() {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		b.mu.Lock()
		b.conns = append(b.conns, conn)
		b.mu.Unlock()
		go b.serve(conn)
	}
}

// dropAll cuts every open connection without a close handshake.
func (b *broker) dropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.conns {
		_ = c.Close()
	}
	b.conns = nil
}

func (b *broker) published() []delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]delivery(nil), b.deliveries...)
}

func (b *broker) serve(conn net.Conn) {
	defer conn.Close()

	header := make([]byte, 8)
	if _, err := io.ReadFull(conn, header); err != nil {
		return
	}

	start := []byte{0, 9}
	start = binary.BigEndian.AppendUint32(start, 0) // server properties
	start = appendLongstr(start, "PLAIN")
	start = appendLongstr(start, "en_US")
	if err := writeMethod(conn, 0, 10, 10, start); err != nil {
		return
	}

	var pending delivery
	for {
		typ, channel, payload, err := readFrame(conn)
		if err != nil {
			return
		}
		if typ == frameBody {
			pending.body = append([]byte(nil), payload...)
			b.mu.Lock()
			b.deliveries = append(b.deliveries, pending)
			b.mu.Unlock()
			continue
		}
		if typ != frameMethod || len(payload) < 4 {
			continue
		}

		class := binary.BigEndian.Uint16(payload)
		method := binary.BigEndian.Uint16(payload[2:])
		switch {
		case class == 10 && method == 11: // connection.start-ok
			tune := binary.BigEndian.AppendUint16(nil, 0)
			tune = binary.BigEndian.AppendUint32(tune, 131072)
			tune = binary.BigEndian.AppendUint16(tune, 0)
			err = writeMethod(conn, 0, 10, 30, tune)
		case class == 10 && method == 40: // connection.open
			err = writeMethod(conn, 0, 10, 41, []byte{0})
		case class == 10 && method == 50: // connection.close
			_ = writeMethod(conn, 0, 10, 51, nil)
			return
		case class == 20 && method == 10: // channel.open
			err = writeMethod(conn, channel, 20, 11, []byte{0, 0, 0, 0})
		case class == 20 && method == 40: // channel.close
			err = writeMethod(conn, channel, 20, 41, nil)
		case class == 60 && method == 40: // basic.publish
			pending = parsePublish(payload[4:])
		}
		if err != nil {
			return
		}
	}
}

func parsePublish(args []byte) delivery {
	args = args[2:] // reserved
	n := int(args[0])
	exchange := string(args[1 : 1+n])
	args = args[1+n:]
	n = int(args[0])
	return delivery{exchange: exchange, routingKey: string(args[1 : 1+n])}
}

func readFrame(r io.Reader) (byte, uint16, []byte, error) {
	header := make([]byte, 7)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, 0, nil, err
	}
	size := binary.BigEndian.Uint32(header[3:])
	payload := make([]byte, size+1)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, 0, nil, err
	}
	if payload[size] != frameEnd {
		return 0, 0, nil, errors.New("bad frame end")
	}
	return header[0], binary.BigEndian.Uint16(header[1:]), payload[:size], nil
}

func writeMethod(w io.Writer, channel, class, method uint16, args []byte) error {
	payload := binary.BigEndian.AppendUint16(nil, class)
	payload = binary.BigEndian.AppendUint16(payload, method)
	payload = append(payload, args...)

	frame := []byte{frameMethod}
	frame = binary.BigEndian.AppendUint16(frame, channel)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, frameEnd)
	_, err := w.Write(frame)
	return err
}

func appendLongstr(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}
