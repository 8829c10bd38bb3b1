package fixture

// UART is the byte endpoint the firmware wires into a UARTLink.
// machine.UART satisfies it.
type UART interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (n int, err error)
}

// UARTLink frames a UART byte stream into protocol lines using a fixed
// buffer. Lines longer than the buffer are discarded up to the next
// terminator; the command grammar never comes close to the limit.
type UARTLink struct {
	u    UART
	buf  [96]byte
	n    int
	drop bool
}

// NewUARTLink wraps a UART.
func NewUARTLink(u UART) *UARTLink {
	return &UARTLink{u: u}
}

// ReadLine drains buffered bytes and returns the next complete line without
// its terminator. It never blocks; ("", false) means no full line is
// pending yet. Both CR and LF terminate a line, so CRLF hosts produce no
// empty phantom lines.
func (l *UARTLink) ReadLine() (string, bool) {
	for l.u.Buffered() > 0 {
		b, err := l.u.ReadByte()
		if err != nil {
			break
		}
		if b == '\n' || b == '\r' {
			if l.drop {
				l.drop = false
				continue
			}
			if l.n == 0 {
				continue
			}
			line := string(l.buf[:l.n])
			l.n = 0
			return line, true
		}
		if l.drop {
			continue
		}
		if l.n == len(l.buf) {
			l.drop = true
			l.n = 0
			continue
		}
		l.buf[l.n] = b
		l.n++
	}
	return "", false
}

var lineEnd = []byte{'\n'}

// WriteLine sends one line followed by a newline.
func (l *UARTLink) WriteLine(s string) {
	_, _ = l.u.Write([]byte(s))
	_, _ = l.u.Write(lineEnd)
}
