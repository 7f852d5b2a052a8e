// Package httpserver runs the process's HTTP listener. Run blocks until the
// caller's context is canceled or the process receives SIGINT or SIGTERM,
// then drains in-flight requests within the configured shutdown window.
package httpserver
