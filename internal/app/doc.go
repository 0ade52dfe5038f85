// Package app contains the conversion service contracts and the use-case
// level orchestration around the numerals core that is independent of
// transport protocols.
//
// Responsibilities:
// - Define the ConverterService port consumed by transports.
// - Wrap numerals.Parse/Format with metrics, logging and conversion events.
// - Provide shared runtime abstractions (notification hub, metrics).
//
// Non-responsibilities:
// - JSON-RPC/HTTP protocol handling and endpoint-level mapping.
// - Roman numeral grammar (implemented in internal/numerals).
package app
