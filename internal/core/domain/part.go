package domain

import "fmt"

const (
	// TargetPartSize is the size of every part but the last two
	TargetPartSize int64 = 10 * 1024 * 1024
	// MinPartSize is the provider minimum for every part but the last
	MinPartSize int64 = 5 * 1024 * 1024
	// MaxParts is the provider maximum number of parts
	MaxParts = 10000
)

// PartSpec describes the byte range of one part of a multipart upload
type PartSpec struct {
	PartNumber int
	StartByte  int64
	EndByte    int64 // inclusive
	SizeBytes  int64
}

// PlanParts splits a file into contiguous parts of TargetPartSize.
// When the remainder would be smaller than MinPartSize, the last two parts
// share their combined span in halves.
func PlanParts(fileSizeBytes int64) ([]PartSpec, error) {
	if fileSizeBytes < MinPartSize {
		return nil, fmt.Errorf("%w: %d bytes, minimum %d", ErrTooSmallForMultipart, fileSizeBytes, MinPartSize)
	}

	count := (fileSizeBytes + TargetPartSize - 1) / TargetPartSize
	if count > MaxParts {
		return nil, fmt.Errorf("%w: %d parts, maximum %d", ErrTooManyPartsRequired, count, MaxParts)
	}

	sizes := make([]int64, count)
	for i := range sizes {
		sizes[i] = TargetPartSize
	}
	sizes[count-1] = fileSizeBytes - (count-1)*TargetPartSize

	if count > 1 && sizes[count-1] < MinPartSize {
		span := sizes[count-2] + sizes[count-1]
		sizes[count-2] = span / 2
		sizes[count-1] = span - span/2
	}

	parts := make([]PartSpec, 0, count)
	var offset int64
	for i, size := range sizes {
		parts = append(parts, PartSpec{
			PartNumber: i + 1,
			StartByte:  offset,
			EndByte:    offset + size - 1,
			SizeBytes:  size,
		})
		offset += size
	}
	return parts, nil
}

// UploadedPart is a part confirmed by the client after it was stored by the provider
type UploadedPart struct {
	PartNumber int
	ETag       string
	SizeBytes  int64
}
