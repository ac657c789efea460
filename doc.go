// Package saturn implements the cycle-accurate core of a Sega Saturn
// hardware emulator: two SH-2 CPUs with their on-chip peripherals, the
// shared system bus, and the VDP1/VDP2 video processors.
//
// The package deliberately stops at the boundary described by its
// specification: SCU DMA/interrupt bridging, the SMPC, the CD block,
// the 68k sound subsystem, controller input, persistence, and any
// front end are external collaborators reached only through the
// interfaces this package exposes.
package saturn
