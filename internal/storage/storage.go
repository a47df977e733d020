// Package storage persists uploaded files (payment receipts, company logos,
// signatures) and returns opaque references to them.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"trade-docs/internal/core"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Policy restricts what a given kind of upload may contain.
type Policy struct {
	Kind     string
	Allowed  []string
	MaxBytes int64
}

var (
	// ReceiptPolicy accepts payment receipts: images or PDF up to 5 MB.
	ReceiptPolicy = Policy{Kind: "receipts", Allowed: []string{"image/jpeg", "image/png", "application/pdf"}, MaxBytes: 5 << 20}
	// LogoPolicy accepts company logos: images up to 2 MB.
	LogoPolicy = Policy{Kind: "logos", Allowed: []string{"image/jpeg", "image/png"}, MaxBytes: 2 << 20}
	// SignaturePolicy accepts signature images up to 2 MB.
	SignaturePolicy = Policy{Kind: "signatures", Allowed: []string{"image/jpeg", "image/png"}, MaxBytes: 2 << 20}
)

// PolicyFor returns the policy for an upload kind as named in the API.
func PolicyFor(kind string) (Policy, bool) {
	switch kind {
	case "receipt", "receipts":
		return ReceiptPolicy, true
	case "logo", "logos":
		return LogoPolicy, true
	case "signature", "signatures":
		return SignaturePolicy, true
	}
	return Policy{}, false
}

// Object is a validated upload ready to be written.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Check sniffs data and enforces p. It returns the object to write with a
// fresh server-generated name.
func (p Policy) Check(data []byte) (*Object, error) {
	if len(data) == 0 {
		return nil, &core.Error{Op: "store file", Kind: core.ErrValidation, Field: "file", Detail: "file is empty"}
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, &core.Error{Op: "store file", Kind: core.ErrValidation, Field: "file",
			Detail: fmt.Sprintf("file exceeds maximum size of %d MB", p.MaxBytes>>20)}
	}
	m := mimetype.Detect(data)
	for _, allowed := range p.Allowed {
		if m.Is(allowed) {
			return &Object{
				Name:        path.Join(p.Kind, uuid.NewString()+m.Extension()),
				ContentType: allowed,
				Data:        data,
			}, nil
		}
	}
	return nil, &core.Error{Op: "store file", Kind: core.ErrValidation, Field: "file",
		Detail: fmt.Sprintf("file type %s is not allowed for %s", m.String(), p.Kind)}
}

// FileStore writes checked uploads and returns their reference. Exists reports
// whether a reference returned by Store still resolves to an object.
type FileStore interface {
	Store(ctx context.Context, data []byte, p Policy) (string, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// objectName strips the gs://bucket/ prefix of GCS references.
func objectName(ref string) string {
	rest, ok := strings.CutPrefix(ref, "gs://")
	if !ok {
		return ref
	}
	_, name, _ := strings.Cut(rest, "/")
	return name
}

// Owns reports whether ref names an object written under p.
func (p Policy) Owns(ref string) bool {
	name := objectName(ref)
	return strings.HasPrefix(name, p.Kind+"/") && path.Clean(name) == name
}

// Verify checks that ref was stored under p and is still present. A failed
// check is a validation error on field.
func Verify(ctx context.Context, fs FileStore, p Policy, ref, field string) error {
	if !p.Owns(ref) {
		return &core.Error{Op: "verify file", Kind: core.ErrValidation, Field: field,
			Detail: fmt.Sprintf("%s must reference an uploaded file in %s", field, p.Kind)}
	}
	ok, err := fs.Exists(ctx, ref)
	if err != nil {
		return fmt.Errorf("verify %s: %w", ref, err)
	}
	if !ok {
		return &core.Error{Op: "verify file", Kind: core.ErrValidation, Field: field,
			Detail: fmt.Sprintf("%s %q was not found", field, ref)}
	}
	return nil
}

// Open returns the backend named by provider ("local" or "gcs") and a close
// function for it.
func Open(ctx context.Context, provider, uploadDir, bucket, credentialsJSON string) (FileStore, func() error, error) {
	switch provider {
	case "", "local":
		s, err := NewLocalStore(uploadDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case "gcs":
		s, err := NewGCSStore(ctx, bucket, credentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage provider %q", provider)
}
