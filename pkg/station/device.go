package station

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the fixture firmware's UART setting.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the reports channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the fixture MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	reports   chan Report
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewSerial creates a new Serial instance with the specified port, baud rate,
// and buffer size.
func NewSerial(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		reports:  make(chan Report, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}

	return result, nil
}

// Connect connects to the serial port and starts reading reports.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readReports()

	return nil
}

// Close closes the connection and stops reading reports.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	close(d.reports)

	return nil
}

// Reports returns the channel for reading parsed fixture output.
func (d *Serial) Reports() <-chan Report {
	return d.reports
}

// StartTest commands the fixture to begin a test of the given duration.
func (d *Serial) StartTest(duration time.Duration) error {
	sec := int(duration / time.Second)
	if sec <= 0 {
		return fmt.Errorf("invalid test duration %v", duration)
	}
	return d.send("START," + strconv.Itoa(sec))
}

// Abort commands the fixture to abort the running test.
func (d *Serial) Abort() error {
	return d.send("ABORT")
}

// SetLive switches the fixture into or out of live view.
func (d *Serial) SetLive(live bool) error {
	if live {
		return d.send("SET_MODE,LIVE")
	}
	return d.send("SET_MODE,IDLE")
}

// SetLoad drives the load switch manually.
func (d *Serial) SetLoad(on bool) error {
	if on {
		return d.send("SET_MOSFET,1")
	}
	return d.send("SET_MOSFET,0")
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) send(cmd string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("failed to send %q: %w", cmd, err)
	}

	return nil
}

// readReports reads lines from the serial port and parses them into Reports.
func (d *Serial) readReports() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readReports: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			// Send report to channel (non-blocking)
			select {
			case d.reports <- ParseReport(line):
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Reports channel full, dropping line")
			}
		}
	}
}
