// Package api defines the splitledger.v1 wire messages.
//
// Messages are plain Go structs exchanged as JSON over Connect (see package
// apiconnect). Monetary amounts are money.Cents and serialize as JSON
// numbers with exactly two fractional digits; percentages serialize with up
// to two. Timestamps are Unix seconds.
package api
