package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/itohio/goscale/pkg/sample"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    sample.Sample
		wantErr bool
	}{
		{
			name: "valid line",
			line: "1234567890123,4020,0",
			want: sample.Sample{Timestamp: time.UnixMicro(1234567890123), Raw: 4020, Weight: 0},
		},
		{
			name: "negative values",
			line: "1234567890123,-8388608,-22649",
			want: sample.Sample{Timestamp: time.UnixMicro(1234567890123), Raw: -8388608, Weight: -22649},
		},
		{
			name: "max raw",
			line: "1,8388607,1",
			want: sample.Sample{Timestamp: time.UnixMicro(1), Raw: 8388607, Weight: 1},
		},
		{name: "wrong number of fields", line: "1234567890123,4020", wantErr: true},
		{name: "too many fields", line: "1,2,3,4", wantErr: true},
		{name: "invalid timestamp", line: "abc,4020,0", wantErr: true},
		{name: "invalid raw", line: "1,x,0", wantErr: true},
		{name: "raw out of range", line: "1,8388608,0", wantErr: true},
		{name: "invalid weight", line: "1,1,1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Timestamp.Equal(got.Timestamp))
			assert.Equal(t, tt.want.Raw, got.Raw)
			assert.Equal(t, tt.want.Weight, got.Weight)
		})
	}
}

func TestFormatLine(t *testing.T) {
	s := sample.Sample{Timestamp: time.UnixMicro(1234567890123), Raw: -4000, Weight: 11}
	assert.Equal(t, "1234567890123,-4000,11\n", FormatLine(s))

	back, err := ParseLine(strings.TrimSpace(FormatLine(s)))
	require.NoError(t, err)
	assert.Equal(t, s.Raw, back.Raw)
	assert.Equal(t, s.Weight, back.Weight)
}

// bufferConn is an in-memory serial connection.
type bufferConn struct {
	bytes.Buffer
	closed bool
}

func (b *bufferConn) Close() error {
	b.closed = true
	return nil
}

func TestSerial_Report(t *testing.T) {
	rep := NewSerial("/dev/null", 0)
	assert.Equal(t, DefaultBaudRate, rep.baudRate)

	err := rep.Report(context.Background(), sample.Sample{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	conn := &bufferConn{}
	rep.conn = conn
	require.NoError(t, rep.Report(context.Background(), sample.Sample{Timestamp: time.UnixMicro(5), Raw: 4020, Weight: 0}))
	require.NoError(t, rep.Report(context.Background(), sample.Sample{Timestamp: time.UnixMicro(6), Raw: 4021, Weight: 1}))
	assert.Equal(t, "5,4020,0\n6,4021,1\n", conn.String())

	require.NoError(t, rep.Close())
	assert.True(t, conn.closed)
	assert.NoError(t, rep.Close(), "closing twice is fine")
}

func TestListen(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	in := strings.NewReader("1,10,0\n\ngarbage\n2,20,1\n")

	var got []sample.Sample
	for s := range Listen(context.Background(), in, zap.New(core).Sugar()) {
		got = append(got, s)
	}

	require.Len(t, got, 2)
	assert.Equal(t, int32(10), got[0].Raw)
	assert.Equal(t, int32(1), got[1].Weight)
	assert.Equal(t, 1, logs.FilterMessage("Failed to parse line").Len())
}
