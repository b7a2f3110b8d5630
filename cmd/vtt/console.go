package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
)

// console writes tagged status lines, coloured only on a terminal.
type console struct {
	w     io.Writer
	color bool
}

func newConsole(f *os.File) *console {
	return &console{w: f, color: term.IsTerminal(int(f.Fd()))}
}

func (c *console) line(color, tag, msg string, a ...any) {
	if c.color {
		fmt.Fprintf(c.w, color+"["+tag+"] "+colorReset+msg+"\n", a...)
		return
	}
	fmt.Fprintf(c.w, "["+tag+"] "+msg+"\n", a...)
}

func (c *console) info(msg string, a ...any) { c.line(colorBlue, "info", msg, a...) }
func (c *console) warn(msg string, a ...any) { c.line(colorYellow, "warn", msg, a...) }
func (c *console) ok(msg string, a ...any)   { c.line(colorGreen, "ok", msg, a...) }
func (c *console) fail(msg string, a ...any) { c.line(colorRed, "error", msg, a...) }

// progress redraws a single percentage line. Off a terminal it stays silent.
func (c *console) progress(p float64) {
	if !c.color {
		return
	}
	fmt.Fprintf(c.w, "\r"+colorBlue+"[info] "+colorReset+"converting %3.0f%%", p*100)
	if p >= 1 {
		fmt.Fprintln(c.w)
	}
}
