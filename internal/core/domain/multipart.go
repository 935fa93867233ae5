package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MultipartStatus represents the status of a provider multipart upload
type MultipartStatus string

const (
	MultipartStatusInProgress MultipartStatus = "IN_PROGRESS"
	MultipartStatusCompleted  MultipartStatus = "COMPLETED"
)

// MultipartUpload tracks the parts of a MULTIPART session
type MultipartUpload struct {
	SessionID        uuid.UUID
	ProviderUploadID string
	TotalParts       int
	PartPlan         []PartSpec
	Status           MultipartStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time

	uploaded map[int]UploadedPart
}

// NewMultipartUpload creates an IN_PROGRESS multipart upload for the given plan
func NewMultipartUpload(sessionID uuid.UUID, providerUploadID string, plan []PartSpec, now time.Time) *MultipartUpload {
	return &MultipartUpload{
		SessionID:        sessionID,
		ProviderUploadID: providerUploadID,
		TotalParts:       len(plan),
		PartPlan:         plan,
		Status:           MultipartStatusInProgress,
		CreatedAt:        now,
		UpdatedAt:        now,
		uploaded:         make(map[int]UploadedPart),
	}
}

// ValidatePartNumber checks that n is part of the plan
func (m *MultipartUpload) ValidatePartNumber(n int) error {
	if n < 1 || n > m.TotalParts {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPartNumber, n, m.TotalParts)
	}
	return nil
}

// Part returns the plan entry of part n
func (m *MultipartUpload) Part(n int) (PartSpec, error) {
	if err := m.ValidatePartNumber(n); err != nil {
		return PartSpec{}, err
	}
	if len(m.PartPlan) >= n && m.PartPlan[n-1].PartNumber == n {
		return m.PartPlan[n-1], nil
	}
	spec, ok := lo.Find(m.PartPlan, func(p PartSpec) bool { return p.PartNumber == n })
	if !ok {
		return PartSpec{}, fmt.Errorf("%w: %d not planned", ErrInvalidPartNumber, n)
	}
	return spec, nil
}

// AddPart records an uploaded part. The last etag wins.
func (m *MultipartUpload) AddPart(part UploadedPart) {
	if m.uploaded == nil {
		m.uploaded = make(map[int]UploadedPart)
	}
	m.uploaded[part.PartNumber] = part
}

// UploadedParts returns the uploaded parts sorted by part number
func (m *MultipartUpload) UploadedParts() []UploadedPart {
	parts := lo.Values(m.uploaded)
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	return parts
}

// UploadedCount returns the number of distinct uploaded parts
func (m *MultipartUpload) UploadedCount() int {
	return len(m.uploaded)
}

// UploadedBytes sums the sizes of the uploaded parts
func (m *MultipartUpload) UploadedBytes() int64 {
	return lo.SumBy(lo.Values(m.uploaded), func(p UploadedPart) int64 { return p.SizeBytes })
}

// CanComplete reports whether every planned part was uploaded
func (m *MultipartUpload) CanComplete() bool {
	return len(m.uploaded) == m.TotalParts
}

// Complete marks the upload as COMPLETED
func (m *MultipartUpload) Complete(now time.Time) error {
	if m.Status == MultipartStatusCompleted {
		return nil
	}
	if !m.CanComplete() {
		return fmt.Errorf("%w: %d of %d parts uploaded", ErrCannotComplete, len(m.uploaded), m.TotalParts)
	}
	m.Status = MultipartStatusCompleted
	m.UpdatedAt = now
	return nil
}
