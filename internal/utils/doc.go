// Package utils provides shared low-level helpers used throughout the
// celeste-go internals. It covers HTTP request helpers for both synchronous
// and streaming (SSE) communication with provider APIs, plus generic pointer
// and string utilities and a simple elapsed-time timer.
//
// Key entry points: [DoPostSync] and [DoGetSync] for synchronous JSON
// round-trips, [DoPostStream] together with [SSEScanner] for Server-Sent
// Events streaming, [DoGetBinary] for media downloads, and [Ptr] for
// converting values to pointers.
package utils
