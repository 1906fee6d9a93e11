// Package ibus provides FlySky iBus receiver protocol support.
package ibus

// iBus is sent by an RC receiver over a serial line (115200 8N1) as a
// continuous stream of fixed 32-byte frames, one every ~7ms:
//
//   byte  0      sync marker 0x20
//   byte  1      command (0x40 for channel data, not interpreted)
//   bytes 2..29  14 channels, uint16 little-endian
//   bytes 30..31 checksum, uint16 little-endian
//
// The checksum starts at 0xffff and subtracts every byte in [0, 30)
// with 16-bit wraparound.
//
// Producer: RC receiver
// Consumer: flight controller / robot controller
