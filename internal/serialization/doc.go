// Package serialization reads and writes tensors in the SafeTensors format.
//
// SafeTensors is used for every artifact the refinement engine touches:
// model checkpoints, preprocessed image batches and per-run results.
//
//	Format Structure:
//	  [8 bytes: header_size (uint64 LE)]
//	  [header_size bytes: JSON header]
//	  [tensor data: raw little-endian bytes]
//
// The header maps tensor names to dtype, shape and data offsets, plus an
// optional "__metadata__" string map. Tensors are always written in
// alphabetical order.
//
// Example usage:
//
//	err := serialization.WriteFile("ckpt-100.safetensors", params, serialization.F32,
//	    map[string]string{"step": "100"})
//
//	f, err := serialization.ReadFile("ckpt-100.safetensors")
//	kernel := f.Tensors["analysis.0.kernel"]
package serialization
