// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package clog provides the level-gated logging used across the driver
// core: handshake transitions, ack-correlation warnings, and the firmware
// quirks documented in the protocol layer are all routed through it instead
// of a bare log.Printf, so an embedding application can redirect or silence
// them without touching driver code.
package clog

import (
	"log"
	"os"
	"sync/atomic"
)

// LogProvider is the sink a Clog writes through. Only four levels exist:
// driver events never rise above Error (there is no supervisory process to
// page), and Debug covers per-frame tracing.
type LogProvider interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Clog is an embeddable, level-gated logger. The zero value is valid and
// stays silent until a provider is attached and LogMode(true) is called;
// both are needed for output.
type Clog struct {
	provider LogProvider
	has      uint32 // 1: enabled, 0: disabled
}

// New returns a Clog writing to stdout with the given prefix, disabled by
// default.
func New(prefix string) Clog {
	return Clog{
		provider: defaultLogger{log.New(os.Stdout, prefix, log.LstdFlags)},
	}
}

// LogMode enables or disables log output.
func (c *Clog) LogMode(enable bool) {
	if enable {
		atomic.StoreUint32(&c.has, 1)
	} else {
		atomic.StoreUint32(&c.has, 0)
	}
}

// SetLogProvider replaces the sink; a nil provider is ignored.
func (c *Clog) SetLogProvider(p LogProvider) {
	if p != nil {
		c.provider = p
	}
}

// Error logs an ERROR level message: a fatal condition the caller's
// pending operation will surface as well (ack slot mismatch on page 0,
// write/read timeout, handshake timeout).
func (c Clog) Error(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 && c.provider != nil {
		c.provider.Error(format, v...)
	}
}

// Warn logs a WARN level message: a non-fatal anomaly the caller is not
// blocked on (dropped frame, page-1 ack status quirk, slot-select timeout
// with dwell fallback).
func (c Clog) Warn(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 && c.provider != nil {
		c.provider.Warn(format, v...)
	}
}

// Info logs an INFO level message: state transitions (Disconnected ->
// Handshaking -> Ready, slot selected, transaction completed).
func (c Clog) Info(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 && c.provider != nil {
		c.provider.Info(format, v...)
	}
}

// Debug logs a DEBUG level message: raw frame tracing.
func (c Clog) Debug(format string, v ...interface{}) {
	if atomic.LoadUint32(&c.has) == 1 && c.provider != nil {
		c.provider.Debug(format, v...)
	}
}

type defaultLogger struct {
	*log.Logger
}

var _ LogProvider = (*defaultLogger)(nil)

func (d defaultLogger) Error(format string, v ...interface{}) { d.Printf("[E]: "+format, v...) }
func (d defaultLogger) Warn(format string, v ...interface{})  { d.Printf("[W]: "+format, v...) }
func (d defaultLogger) Info(format string, v ...interface{})  { d.Printf("[I]: "+format, v...) }
func (d defaultLogger) Debug(format string, v ...interface{}) { d.Printf("[D]: "+format, v...) }
