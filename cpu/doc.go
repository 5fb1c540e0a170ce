// Package cpu implements the register bank, memory and incremental assembler
// for a Cortex-M0+ class Thumb processor.
//
// Source is assembled one block at a time. Each instruction compiles into a
// Thunk that mutates the Cpu when invoked, and each block is committed to the
// Program only when every line of it assembles successfully. Directives take
// effect at assembly time and are staged with the rest of the block.
//
// Labels are looked up when a thunk runs, so a branch may name a label that a
// later block defines.
package cpu
