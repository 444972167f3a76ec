// Package mmap provides read-only memory-mapped file access.
//
// LocalStore maps archive files instead of reading them through a buffer:
//
//	m, err := mmap.Open("runs/3f2c.ckar")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2); Windows uses MapViewOfFile and treats
// Advise as a no-op. Bytes must not be used after Close returns.
package mmap
