package device

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoDevice is returned by autodetection when no serial port is present.
var ErrNoDevice = errors.New("no serial device found")

// knownVIDs are USB vendor IDs of boards and USB-serial bridges that usually
// carry a microcontroller.
var knownVIDs = map[string]string{
	"2341": "Arduino",
	"2a03": "Arduino",
	"1a86": "CH340",
	"0403": "FTDI",
	"10c4": "CP210x",
	"239a": "Adafruit",
	"2886": "Seeed",
	"2e8a": "Raspberry Pi",
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
	IsUSB       bool
	VID         string
	PID         string
}

// Ports returns a list of available serial ports. USB details are filled in
// when the platform enumerator provides them.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		result := make([]Port, 0, len(details))
		for _, p := range details {
			result = append(result, Port{
				Name:        p.Name,
				Description: describe(p),
				IsUSB:       p.IsUSB,
				VID:         p.VID,
				PID:         p.PID,
			})
		}
		return result, nil
	}

	// Fall back to plain names
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Detect picks the port most likely to be the microcontroller: a USB port
// with a known vendor ID first, then any USB port, then the first port.
func Detect(ports []Port) (Port, error) {
	if len(ports) == 0 {
		return Port{}, ErrNoDevice
	}
	for _, p := range ports {
		if p.IsUSB && isKnownVID(p.VID) {
			return p, nil
		}
	}
	for _, p := range ports {
		if p.IsUSB {
			return p, nil
		}
	}
	return ports[0], nil
}

// Autodetect lists the ports and returns the name chosen by Detect.
func Autodetect() (string, error) {
	ports, err := Ports()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	p, err := Detect(ports)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func isKnownVID(vid string) bool {
	_, ok := knownVIDs[strings.ToLower(strings.TrimPrefix(vid, "0x"))]
	return ok
}

func describe(p *enumerator.PortDetails) string {
	if !p.IsUSB {
		return p.Name
	}
	vendor := knownVIDs[strings.ToLower(p.VID)]
	switch {
	case p.Product != "":
		return p.Product
	case vendor != "":
		return vendor
	default:
		return fmt.Sprintf("USB %s:%s", p.VID, p.PID)
	}
}
