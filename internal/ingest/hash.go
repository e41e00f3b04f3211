package ingest

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
)

// Fingerprint carries the two content hashes computed once over the original
// bytes at upload time. They are never recomputed; downstream consumers (QC,
// the production audit report) rely on them to tie produced Bates ranges back
// to native files.
type Fingerprint struct {
	MD5  string
	SHA1 string
}

// ComputeFingerprint hashes the document bytes with both digests.
func ComputeFingerprint(data []byte) Fingerprint {
	md5Sum := md5.Sum(data)
	sha1Sum := sha1.Sum(data)
	return Fingerprint{
		MD5:  hex.EncodeToString(md5Sum[:]),
		SHA1: hex.EncodeToString(sha1Sum[:]),
	}
}
