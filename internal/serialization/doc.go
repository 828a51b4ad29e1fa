// Package serialization reads and writes state dictionaries in the
// SafeTensors format used by HuggingFace and PyTorch tooling.
//
// File layout:
//
//	[8 bytes: header size N (uint64 LE)]
//	[N bytes: JSON header]
//	[tensor data: raw little-endian bytes]
//
// The JSON header maps tensor names to {"dtype", "shape", "data_offsets"},
// plus an optional "__metadata__" object of string pairs. Offsets are
// relative to the start of the data section.
//
// Example usage:
//
//	// Save a model
//	if err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load a model
//	stateDict, err := serialization.ReadSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(stateDict); err != nil {
//	    log.Fatal(err)
//	}
//
// Tensors are always loaded as float32; F64 and BF16 tensors are converted.
package serialization
