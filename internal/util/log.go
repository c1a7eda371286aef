// Package util provides shared utility functions: logging, one-shot
// latches, and id generation used across the node's internal components.
package util

import "github.com/pterm/pterm"

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 2006 15:04:05"
}

// enableBase/enableDebug gate info/success/warning and debug logging
// independently, mirroring the two flags of the WithLogging option.
var (
	enableBase  = false
	enableDebug = false
)

// EnableBase turns on info/success/warning logging.
func EnableBase() { enableBase = true }

// EnableDebug turns on debug logging (independent of EnableBase).
func EnableDebug() {
	enableDebug = true
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

func LogDebug(format string, args ...interface{}) {
	if !enableDebug {
		return
	}
	pterm.Debug.Printfln(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	if !enableBase {
		return
	}
	pterm.Info.Printfln(format, args...)
}

func LogSuccess(format string, args ...interface{}) {
	if !enableBase {
		return
	}
	pterm.Success.Printfln(format, args...)
}

func LogWarning(format string, args ...interface{}) {
	if !enableBase {
		return
	}
	pterm.Warning.Printfln(format, args...)
}

// LogError is never gated: negotiation and transport failures are always
// surfaced, even with base logging disabled.
func LogError(format string, args ...interface{}) {
	pterm.Error.Printfln(format, args...)
}
