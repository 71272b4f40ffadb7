// Package memory provides bounds-checked reads of memory the scanner does
// not trust.
//
// A Region answers whether a byte range is currently readable and copies
// bytes out of it. Regions are queried on every read and never cache
// validity, because memory can be unmapped between two reads and adjacent
// reads can straddle a mapping boundary. Reader layers word, uint32 and
// C string decoding on top of a Region and reports every failure as
// "no data" instead of an error.
//
// Three regions are provided:
//
//   - ProcessRegion reads the current process, asking the OS for page
//     protection before each copy and using a copy primitive that cannot
//     fault.
//   - ImageRegion serves a byte image mapped at a fixed base address, used
//     for raw memory dumps and test fixtures.
//   - WasmRegion serves a WebAssembly guest's linear memory.
package memory
