package client

import (
	"context"
	"fmt"
	"io"
	"sync"

	uploadv1 "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// UploadInput describes a local file to upload
type UploadInput struct {
	FileName       string
	ContentType    string
	SizeBytes      int64
	Checksum       *uploadv1.V1Checksum
	IdempotencyKey string
	Body           io.ReaderAt
	// Concurrency bounds the parts sent at once, 1 when unset
	Concurrency int
	// Wrap decorates the reader of each part, partNumber is 0 for single uploads
	Wrap func(partNumber int, sizeBytes int64, r io.Reader) io.Reader
	// OnSession is called once the session exists
	OnSession func(resp *uploadv1.V1CreateSessionResponse)
}

// Upload runs the whole protocol: create the session, send the bytes to storage,
// report the parts and complete. A reused session only uploads the parts the server has not recorded yet.
func (c *Client) Upload(ctx context.Context, in UploadInput) (*uploadv1.V1CompletionResponse, error) {
	created, err := c.CreateSession(ctx, uploadv1.V1CreateSessionRequest{
		FileName:       in.FileName,
		FileSizeBytes:  in.SizeBytes,
		ContentType:    in.ContentType,
		Checksum:       in.Checksum,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if in.OnSession != nil {
		in.OnSession(created)
	}
	sessionID := created.Session.ID

	if created.UploadURL != nil {
		etag, err := c.Put(ctx, created.UploadURL, in.wrap(0, in.SizeBytes, io.NewSectionReader(in.Body, 0, in.SizeBytes)), in.SizeBytes)
		if err != nil {
			return nil, err
		}
		return c.Confirm(ctx, sessionID, etag)
	}

	if err := c.uploadParts(ctx, in, created); err != nil {
		return nil, err
	}
	return c.Complete(ctx, sessionID)
}

func (in UploadInput) wrap(partNumber int, sizeBytes int64, r io.Reader) io.Reader {
	if in.Wrap == nil {
		return r
	}
	return in.Wrap(partNumber, sizeBytes, r)
}

func (c *Client) uploadParts(ctx context.Context, in UploadInput, created *uploadv1.V1CreateSessionResponse) error {
	parts := created.Parts
	if len(parts) == 0 {
		return fmt.Errorf("session %s has no parts to upload", created.Session.ID)
	}
	if created.Reused {
		status, err := c.GetStatus(ctx, created.Session.ID)
		if err != nil {
			return err
		}
		parts = lo.Reject(parts, func(p uploadv1.V1Part, _ int) bool {
			return lo.Contains(status.UploadedPartNumbers, p.PartNumber)
		})
		if len(parts) == 0 {
			return nil
		}
	}

	concurrency := max(in.Concurrency, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		sem      = make(chan struct{}, concurrency)
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, part := range lo.UniqBy(parts, func(p uploadv1.V1Part) int { return p.PartNumber }) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(part uploadv1.V1Part) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.uploadPart(ctx, in, created.Session.ID, part); err != nil {
				fail(fmt.Errorf("part %d: %w", part.PartNumber, err))
			}
		}(part)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (c *Client) uploadPart(ctx context.Context, in UploadInput, sessionID uuid.UUID, part uploadv1.V1Part) error {
	grant, err := c.PartURL(ctx, sessionID, part.PartNumber)
	if err != nil {
		return err
	}

	reader := io.NewSectionReader(in.Body, part.StartByte, part.SizeBytes)
	etag, err := c.Put(ctx, grant.Grant, in.wrap(part.PartNumber, part.SizeBytes, reader), part.SizeBytes)
	if err != nil {
		return err
	}

	_, err = c.MarkPart(ctx, sessionID, part.PartNumber, etag, part.SizeBytes)
	return err
}
