package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/packship/packship/internal/artifact"
	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
)

// Publisher uploads every artifact in an output directory to a target
// index. Policy is do-not-overwrite: a conflict on the target is fatal.
type Publisher struct {
	client  *http.Client
	timeout time.Duration
}

// NewPublisher creates a publisher with the given per-artifact timeout.
func NewPublisher(timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = constants.DefaultPublishTimeout
	}
	return &Publisher{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Publish uploads each artifact found in artifactDir to target, stopping at
// the first failure. An empty directory is an error: the ordering contract
// says a build must have completed before publishing starts.
func (p *Publisher) Publish(ctx context.Context, artifactDir string, target Target) ([]artifact.Artifact, error) {
	log := zerolog.Ctx(ctx)

	artifacts, err := artifact.Scan(artifactDir)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, errors.Wrapf(errors.ErrNoArtifacts, "directory %s", artifactDir)
	}

	for _, a := range artifacts {
		if err := p.uploadOne(ctx, a, target); err != nil {
			return nil, errors.Wrapf(err, "uploading %s", a.Filename())
		}
		log.Info().
			Str("file", a.Filename()).
			Str("target", target.URL).
			Msg("published artifact")
	}

	return artifacts, nil
}

// uploadOne posts a single artifact as a multipart form: identity fields,
// the content digest, and the file itself.
func (p *Publisher) uploadOne(ctx context.Context, a artifact.Artifact, target Target) error {
	body, contentType, err := encodeUpload(a)
	if err != nil {
		return err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, strings.TrimSuffix(target.URL, "/")+"/", body)
	if err != nil {
		return errors.Wrap(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(target.Credential.Username, target.Credential.Password)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(errors.ErrNetwork, "%s: %v", target.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return classifyStatus(resp)
}

// encodeUpload builds the multipart body for one artifact.
func encodeUpload(a artifact.Artifact) (io.Reader, string, error) {
	content, err := os.ReadFile(a.Path) // #nosec G304 -- path comes from scanning the output directory
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to read %s", a.Path)
	}
	digest := sha256.Sum256(content)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":    a.Name,
		"version": a.Version,
		"format":  a.Format.String(),
		"sha256":  hex.EncodeToString(digest[:]),
	}
	for field, value := range fields {
		if err := mw.WriteField(field, value); err != nil {
			return nil, "", errors.Wrap(err, "failed to encode upload")
		}
	}

	fw, err := mw.CreateFormFile("content", a.Filename())
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to encode upload")
	}
	if _, err := fw.Write(content); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode upload")
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode upload")
	}

	return &buf, mw.FormDataContentType(), nil
}

// classifyStatus maps registry responses onto the publish error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(errors.ErrAuth, "status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusConflict:
		return errors.Wrapf(errors.ErrConflict, "status %d", resp.StatusCode)
	default:
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected registry response %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
}
