package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		ports   []Port
		want    string
		wantErr error
	}{
		{
			name:    "no ports",
			ports:   nil,
			wantErr: ErrNoDevice,
		},
		{
			name:  "single plain port",
			ports: []Port{{Name: "/dev/ttyS0"}},
			want:  "/dev/ttyS0",
		},
		{
			name: "usb preferred over plain",
			ports: []Port{
				{Name: "/dev/ttyS0"},
				{Name: "/dev/ttyUSB0", IsUSB: true, VID: "dead", PID: "beef"},
			},
			want: "/dev/ttyUSB0",
		},
		{
			name: "known vendor preferred over unknown usb",
			ports: []Port{
				{Name: "/dev/ttyUSB0", IsUSB: true, VID: "dead"},
				{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
			},
			want: "/dev/ttyACM0",
		},
		{
			name: "vendor id is case insensitive",
			ports: []Port{
				{Name: "COM4", IsUSB: true, VID: "dead"},
				{Name: "COM7", IsUSB: true, VID: "1A86", PID: "7523"},
			},
			want: "COM7",
		},
		{
			name: "known vid on non usb port ignored",
			ports: []Port{
				{Name: "COM1", VID: "2341"},
				{Name: "COM2"},
			},
			want: "COM1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.ports)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestIsKnownVID(t *testing.T) {
	assert.True(t, isKnownVID("2341"))
	assert.True(t, isKnownVID("0x0403"))
	assert.True(t, isKnownVID("10C4"))
	assert.False(t, isKnownVID(""))
	assert.False(t, isKnownVID("ffff"))
}
