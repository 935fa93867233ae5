package main

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	uploadv1 "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"
	"github.com/ryu-qqq/FileFlow-sub002/internal/client"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

func main() {
	app := &cli.App{
		Name:  "uploadctl",
		Usage: "Upload files through the FileFlow api",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Base url of the api",
				EnvVars: []string{"UPLOADCTL_SERVER"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Bearer token carrying tenant_id and sub claims",
				EnvVars:  []string{"UPLOADCTL_TOKEN"},
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload a local file",
				Aliases:   []string{"u"},
				ArgsUsage: "<file>",
				Action:    upload,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Declared content type, detected from the file when empty",
					},
					&cli.StringFlag{
						Name:  "idempotency-key",
						Usage: "Reuse the session created with the same key",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Parts sent at once",
						Value: 4,
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Print the status of a session",
				Aliases:   []string{"s"},
				ArgsUsage: "<session-id>",
				Action:    status,
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a session",
				ArgsUsage: "<session-id>",
				Action:    cancel,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"), c.String("token"), nil)
}

func sessionIDArg(c *cli.Context) (uuid.UUID, error) {
	if c.NArg() != 1 {
		return uuid.Nil, cli.Exit("expected exactly one session id", 2)
	}
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return uuid.Nil, cli.Exit(fmt.Sprintf("invalid session id: %v", err), 2)
	}
	return id, nil
}

func upload(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one file", 2)
	}
	path := c.Args().First()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file %q: %w", path, err)
	}

	contentType := c.String("content-type")
	if contentType == "" {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return fmt.Errorf("failed to detect content type: %w", err)
		}
		contentType = detected.String()
	}

	checksum, err := sha256File(file)
	if err != nil {
		return err
	}

	p := mpb.New(mpb.WithWidth(60))
	total := p.AddBar(info.Size(),
		mpb.PrependDecorators(
			decor.Name(filepath.Base(path), decor.WC{W: 20, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f "),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name(" | "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)

	start := time.Now()
	result, err := newClient(c).Upload(c.Context, client.UploadInput{
		FileName:       filepath.Base(path),
		ContentType:    contentType,
		SizeBytes:      info.Size(),
		Checksum:       &uploadv1.V1Checksum{Algorithm: "SHA256", Value: checksum},
		IdempotencyKey: c.String("idempotency-key"),
		Body:           file,
		Concurrency:    c.Int("concurrency"),
		Wrap: func(_ int, _ int64, r io.Reader) io.Reader {
			return total.ProxyReader(r)
		},
		OnSession: func(resp *uploadv1.V1CreateSessionResponse) {
			fmt.Printf("session %s (%s, %d parts, reused: %t)\n", resp.Session.ID, resp.Session.UploadType, len(resp.Parts), resp.Reused)
		},
	})
	if err != nil {
		total.Abort(false)
		p.Wait()
		return err
	}
	// a resumed upload skips bytes already stored
	total.SetCurrent(info.Size())
	p.Wait()

	fmt.Printf("file asset %s %s in %s\n", result.FileAssetID, result.Status, time.Since(start).Round(time.Millisecond))
	return nil
}

func sha256File(file *os.File) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hash.Sum(nil)), nil
}

func status(c *cli.Context) error {
	sessionID, err := sessionIDArg(c)
	if err != nil {
		return err
	}

	resp, err := newClient(c).GetStatus(c.Context, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s %s\n", resp.Session.ID, resp.Session.Status, resp.Session.FileName)
	fmt.Printf("parts %d/%d, progress %d%%\n", resp.UploadedParts, resp.TotalParts, resp.Progress)
	if resp.Session.FileAssetID != nil {
		fmt.Printf("file asset %s\n", resp.Session.FileAssetID)
	}
	return nil
}

func cancel(c *cli.Context) error {
	sessionID, err := sessionIDArg(c)
	if err != nil {
		return err
	}

	session, err := newClient(c).Cancel(c.Context, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", session.ID, session.Status)
	return nil
}
