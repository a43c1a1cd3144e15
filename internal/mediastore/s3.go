package mediastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store implements Store against an S3 (or S3-compatible) bucket. Asset
// ids map one-to-one onto object keys under an optional prefix.
//
// S3's batch delete is a good model of the "optimistic" capability the
// executor is built around: DeleteObjects can report success for keys the
// caller is not allowed to remove, so the verification read is what decides
// the real outcome.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3StoreConfig contains configuration for the S3 media store.
type S3StoreConfig struct {
	Client    *s3.Client
	Bucket    string
	KeyPrefix string
}

// NewS3Store creates a media store over an existing bucket. The bucket must
// already exist; this constructor only verifies it is reachable.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	s := &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		if isAccessDenied(err) {
			return s, nil // reachable but unauthorized; Permission() reports it
		}
		return nil, fmt.Errorf("failed to access bucket %q: %w", s.bucket, err)
	}
	return s, nil
}

func (s *S3Store) key(id string) string {
	return s.keyPrefix + id
}

// Permission probes bucket access. S3 has no "limited" grant; the result is
// either granted or denied.
func (s *S3Store) Permission(ctx context.Context) (PermissionStatus, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		if isAccessDenied(err) {
			return PermissionDenied, nil
		}
		return PermissionDenied, fmt.Errorf("failed to probe bucket access: %w", err)
	}
	return PermissionGranted, nil
}

func (s *S3Store) DeleteByIDs(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(ids))
	for _, id := range ids {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(s.key(id))})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		if isAccessDenied(err) {
			return false, fmt.Errorf("%w: %v", ErrNoAccess, err)
		}
		return false, fmt.Errorf("delete objects: %w", err)
	}

	// Per-key errors still mean the batch call itself "succeeded"; the
	// verification read sorts out which keys actually remain.
	for _, de := range out.Errors {
		if de.Code != nil && (*de.Code == "AccessDenied" || *de.Code == "AccessDeniedException") {
			return false, fmt.Errorf("%w: key-level access denied", ErrNoAccess)
		}
	}
	return true, nil
}

func (s *S3Store) ListExisting(ctx context.Context, ids []string) ([]string, error) {
	var existing []string
	for _, id := range ids {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(id)),
		})
		if err != nil {
			if isNotFound(err) {
				continue
			}
			if isAccessDenied(err) {
				return nil, fmt.Errorf("%w: %v", ErrNoAccess, err)
			}
			return nil, fmt.Errorf("head object %q: %w", id, err)
		}
		existing = append(existing, id)
	}
	return existing, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		(apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey")
}

func isAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "AccessDenied" || code == "AccessDeniedException" || code == "Forbidden"
}
