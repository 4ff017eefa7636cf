package files

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the slice of the S3 client this source needs. *s3.Client
// satisfies it; tests can substitute a fake.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 serves static files from an S3 bucket, optionally under a key
// prefix.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	src := files.NewS3(s3.NewFromConfig(cfg), "my-bucket", "static/")
//	app.StaticSource("/static", src)
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 creates an S3 source. prefix may be empty; when set it is
// joined in front of every requested name.
func NewS3(client S3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// Open fetches the object for name. A missing key reports ErrNotFound;
// other S3 failures surface as-is.
func (s *S3) Open(ctx context.Context, name string) ([]byte, error) {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
