// Zaparoo Projector
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Projector.
//
// Zaparoo Projector is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Projector is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Projector.  If not, see <http://www.gnu.org/licenses/>.

package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

var linuxSerialPrefixes = []string{"ttyUSB", "ttyACM", "ttyS", "ttyAMA"}

// listTTYDevices returns the serial-looking device nodes in dir. USB
// adapters are listed before on-board UARTs.
func listTTYDevices(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", dir, err)
	}

	devices := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, prefix := range linuxSerialPrefixes {
			if strings.HasPrefix(e.Name(), prefix) {
				devices = append(devices, filepath.Join(dir, e.Name()))
				break
			}
		}
	}

	rank := func(path string) int {
		base := filepath.Base(path)
		for i, prefix := range linuxSerialPrefixes {
			if strings.HasPrefix(base, prefix) {
				return i
			}
		}
		return len(linuxSerialPrefixes)
	}
	sort.SliceStable(devices, func(i, j int) bool {
		if rank(devices[i]) != rank(devices[j]) {
			return rank(devices[i]) < rank(devices[j])
		}
		return devices[i] < devices[j]
	})

	return devices, nil
}

// GetSerialDeviceList returns the serial ports a projector could be
// attached to on this machine.
func GetSerialDeviceList() ([]string, error) {
	if runtime.GOOS == "linux" {
		return listTTYDevices("/dev")
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list on %s: %w", runtime.GOOS, err)
	}
	log.Debug().Int("port_count", len(ports)).Msg("serial ports enumerated")

	return ports, nil
}
