package connector

import (
	"regexp"
	"strings"
)

var (
	macAddressRegex   = regexp.MustCompile(`([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})`)
	newTransportRegex = regexp.MustCompile(`\[.*NEW.*\] Transport /org/bluez/.*`)
)

// MacAddress is a device hardware address exactly as it appeared in tool output.
type MacAddress string

func (a MacAddress) String() string { return string(a) }

// DeviceEntry is one line of "<tool> devices" output, e.g.
// "Device AA:BB:CC:DD:EE:FF WH-1000XM3".
type DeviceEntry string

// Matches reports whether the entry contains any of names.
func (e DeviceEntry) Matches(names []string) bool {
	for _, name := range names {
		if name != "" && strings.Contains(string(e), name) {
			return true
		}
	}
	return false
}

// Name returns the human-readable part following the address, or the whole
// line when it has no address.
func (e DeviceEntry) Name() string {
	loc := macAddressRegex.FindStringIndex(string(e))
	if loc == nil {
		return strings.TrimSpace(string(e))
	}
	return strings.TrimSpace(string(e)[loc[1]:])
}

// ExtractAddress returns the first MAC address in entry.
func ExtractAddress(entry DeviceEntry) (MacAddress, error) {
	addr := macAddressRegex.FindString(string(entry))
	if addr == "" {
		return "", &ParseError{Entry: string(entry)}
	}
	return MacAddress(addr), nil
}

// IsTransportCreated reports whether connect output announces a new audio
// transport, which bluetoothctl prints as "[NEW] Transport /org/bluez/...".
// The tag may carry terminal color codes around NEW.
func IsTransportCreated(output string) bool {
	return newTransportRegex.MatchString(output)
}

// parseDeviceList splits listing output into non-empty entries.
func parseDeviceList(output string) []DeviceEntry {
	lines := strings.Split(output, "\n")
	entries := make([]DeviceEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, DeviceEntry(line))
	}
	return entries
}
