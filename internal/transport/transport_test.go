package transport

import (
	"bytes"
	"io"
	"testing"
)

type loopback struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (l *loopback) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.out.Write(p) }

func newLoopback(in []byte) (*Transport, *loopback) {
	lb := &loopback{in: bytes.NewBuffer(in), out: &bytes.Buffer{}}
	return New(lb), lb
}

func TestReadByteAndFull(t *testing.T) {
	tr, _ := newLoopback([]byte{'U', 1, 2, 3, 4})

	b, err := tr.ReadByte()
	if err != nil || b != 'U' {
		t.Fatalf("ReadByte: got (%v,%v) want 'U'", b, err)
	}

	buf := make([]byte, 4)
	if err := tr.ReadFull(buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Fatalf("ReadFull contents: %v", buf)
	}
}

func TestReadFullShortReturnsError(t *testing.T) {
	tr, _ := newLoopback([]byte{1, 2})
	buf := make([]byte, 4)
	if err := tr.ReadFull(buf); err == nil {
		t.Fatal("expected error on short read")
	}
}

func TestReadLineStripsNewlineAndBounds(t *testing.T) {
	tr, _ := newLoopback([]byte("hello\n"))
	line, err := tr.ReadLine(1024)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if string(line) != "hello" {
		t.Fatalf("got %q want %q", line, "hello")
	}
}

func TestReadLineRejectsOversizedLine(t *testing.T) {
	long := bytes.Repeat([]byte{'a'}, 2000)
	long = append(long, '\n')
	tr, _ := newLoopback(long)
	if _, err := tr.ReadLine(1024); err == nil {
		t.Fatal("expected error for a line over the bound")
	}
}

func TestAckNack(t *testing.T) {
	tr, lb := newLoopback(nil)
	if err := tr.Ack(); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if err := tr.Nack(); err != nil {
		t.Fatalf("Nack: %v", err)
	}
	if !bytes.Equal(lb.out.Bytes(), []byte{FrameOK, FrameBad}) {
		t.Fatalf("got %v want [0x00 0x01]", lb.out.Bytes())
	}
}

func TestReadByteEOF(t *testing.T) {
	tr, _ := newLoopback(nil)
	if _, err := tr.ReadByte(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
