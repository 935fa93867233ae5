package domain

import (
	"fmt"
	"strings"
)

// ChecksumAlgorithm is a checksum algorithm supported by the storage providers
type ChecksumAlgorithm string

const (
	ChecksumSHA256 ChecksumAlgorithm = "SHA256"
	ChecksumSHA1   ChecksumAlgorithm = "SHA1"
	ChecksumMD5    ChecksumAlgorithm = "MD5"
	ChecksumCRC32  ChecksumAlgorithm = "CRC32"
	ChecksumCRC32C ChecksumAlgorithm = "CRC32C"
)

// Checksum is a client declared or storage reported checksum
type Checksum struct {
	Algorithm ChecksumAlgorithm
	Value     string
}

// NewChecksum validates and normalizes a checksum
func NewChecksum(algorithm string, value string) (*Checksum, error) {
	algo := ChecksumAlgorithm(strings.ToUpper(strings.TrimSpace(algorithm)))
	switch algo {
	case ChecksumSHA256, ChecksumSHA1, ChecksumMD5, ChecksumCRC32, ChecksumCRC32C:
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidChecksum, algorithm)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidChecksum)
	}
	return &Checksum{Algorithm: algo, Value: value}, nil
}

// VerifyChecksum compares the checksum declared by the client with the one storage reported.
// A nil declared checksum skips verification.
func VerifyChecksum(declared *Checksum, object ObjectMetadata) error {
	if declared == nil {
		return nil
	}

	reported := object.Checksum
	if reported == nil || strings.TrimSpace(reported.Value) == "" {
		return ErrChecksumMetadataMissing
	}

	if !strings.EqualFold(string(reported.Algorithm), string(declared.Algorithm)) {
		return fmt.Errorf("%w: declared %s, storage reported %s", ErrAlgorithmMismatch, declared.Algorithm, reported.Algorithm)
	}

	if !strings.EqualFold(strings.TrimSpace(reported.Value), strings.TrimSpace(declared.Value)) {
		return ErrChecksumMismatch
	}
	return nil
}

// NormalizeETag strips quotes and whitespace and lower-cases an etag
func NormalizeETag(etag string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(etag), "\""))
}
