// Package archive persists clustering results in a blob store.
//
// An archive blob is a small framed header followed by the encoded record:
//
//	[magic "CKAR"][version u8][compression u8][codec name len u8][codec name]
//	[uncompressed size u32][stored size u32][crc32c u32][payload]
//
// A stored size of 0 means the payload is kept uncompressed, which happens when
// compression does not save at least 10%. The checksum covers the decoded payload.
package archive
