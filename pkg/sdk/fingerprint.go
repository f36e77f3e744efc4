package gasdb

import (
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/fingerprint"
)

// Fingerprint returns the content hash of doc with the ignored top-level keys
// (and storage ids) left out. Documents that differ only in key order or in
// ignored keys share a fingerprint; retained strings compare byte for byte.
func Fingerprint(doc Document, ignore ...string) (string, error) {
	d, err := document.FromMap(doc)
	if err != nil {
		return "", err
	}
	fp, err := fingerprint.Of(d, ignore)
	if err != nil {
		return "", err
	}
	return fp.String(), nil
}

// Canonical returns the canonical serialization Fingerprint hashes.
func Canonical(doc Document, ignore ...string) (string, error) {
	d, err := document.FromMap(doc)
	if err != nil {
		return "", err
	}
	return fingerprint.Canonical(d, ignore)
}
