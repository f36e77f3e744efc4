// Package fingerprint derives content identities for documents.
//
// Two documents that are equal outside an ignore set get equal fingerprints.
// There is no tolerance: numbers that differ in the last bit hash differently.
package fingerprint

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/surfcat/gasdb/internal/domain/document"
)

// Fingerprint is a process-local content hash. Do not persist it: use
// Canonical when a value must survive across processes.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 16)
}

// Of hashes doc after removing ignoreKeys and the storage identifier keys.
// doc itself is never modified.
func Of(doc document.Document, ignoreKeys []string) (Fingerprint, error) {
	b, err := canonicalBytes(doc, ignoreKeys)
	if err != nil {
		return 0, err
	}
	return Fingerprint(xxhash.Sum64(b)), nil
}

// MustOf is Of that panics on error.
func MustOf(doc document.Document, ignoreKeys []string) Fingerprint {
	f, err := Of(doc, ignoreKeys)
	if err != nil {
		panic(err)
	}
	return f
}
