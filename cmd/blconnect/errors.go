package main

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/srg/blconnect/internal/connector"
)

// FormatUserError turns err into the message printed after "Error: ".
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Sprintf("%s (is BlueZ installed and %q in PATH?)", err, toolName)
	case errors.Is(err, connector.ErrConnectionFailed):
		return fmt.Sprintf("%s (is the device powered on and in pairing range?)", err)
	default:
		return err.Error()
	}
}
