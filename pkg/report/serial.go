package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/itohio/goscale/pkg/sample"
)

const (
	// DefaultBaudRate is the default serial line speed.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size of the Listen channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
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

// Serial writes samples as lines to a serial port.
// Line format: unix_micros,raw,weight
type Serial struct {
	port     string
	baudRate int

	mu   sync.Mutex
	conn io.ReadWriteCloser
}

// NewSerial creates a serial reporter. Open must be called before Report.
func NewSerial(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &Serial{port: port, baudRate: baudRate}
}

// Open opens the serial port.
func (s *Serial) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return fmt.Errorf("already open")
	}

	conn, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}
	s.conn = conn
	return nil
}

// Report writes one line for s.
func (s *Serial) Report(_ context.Context, smp sample.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	if _, err := io.WriteString(s.conn, FormatLine(smp)); err != nil {
		return fmt.Errorf("failed to send sample: %w", err)
	}
	return nil
}

// Close closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Listen reads sample lines from r until ctx is done or r is exhausted.
// Lines that fail to parse are logged and skipped. The returned channel is
// closed when reading stops.
func Listen(ctx context.Context, r io.Reader, log *zap.SugaredLogger) <-chan sample.Sample {
	out := make(chan sample.Sample, DefaultBufferSize)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			smp, err := ParseLine(line)
			if err != nil {
				log.Warnw("Failed to parse line", "line", line, "error", err)
				continue
			}

			select {
			case out <- smp:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Errorw("Error reading samples", "error", err)
		}
	}()

	return out
}

// ListenPort opens a serial port and listens for samples on it. The port
// is closed when ctx is done.
func ListenPort(ctx context.Context, port string, baudRate int, log *zap.SugaredLogger) (<-chan sample.Sample, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return Listen(ctx, conn, log), nil
}

// FormatLine renders s in the serial line format, newline terminated.
func FormatLine(s sample.Sample) string {
	return fmt.Sprintf("%d,%d,%d\n", s.Timestamp.UnixMicro(), s.Raw, s.Weight)
}

// ParseLine parses a serial line into a Sample.
// Format: unix_micros,raw,weight
// Example: 1234567890123,4020,0
func ParseLine(line string) (sample.Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return sample.Sample{}, fmt.Errorf("invalid line format: expected 3 comma-separated values, got %d", len(parts))
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return sample.Sample{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	raw, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return sample.Sample{}, fmt.Errorf("invalid raw value: %w", err)
	}
	if raw < -1<<23 || raw > 1<<23-1 {
		return sample.Sample{}, fmt.Errorf("raw value out of range: %d", raw)
	}

	weight, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return sample.Sample{}, fmt.Errorf("invalid weight: %w", err)
	}

	return sample.Sample{
		Timestamp: time.UnixMicro(micros),
		Raw:       int32(raw),
		Weight:    int32(weight),
	}, nil
}
