package s3infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/credential-relay/internal/config"
	"github.com/credential-relay/internal/infrastructure/templates"
)

// maxTemplateSize caps how much of an object is read as a template.
const maxTemplateSize = 1 << 20

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// objectGetter is the slice of the S3 API the template source needs.
type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// TemplateSource loads message templates stored as "<prefix><key>.html" or
// "<prefix><key>.txt" objects in one bucket.
type TemplateSource struct {
	client objectGetter
	bucket string
	prefix string
}

// NewTemplateSource creates a TemplateSource with the given S3 client, bucket and key prefix.
func NewTemplateSource(client objectGetter, bucket, prefix string) *TemplateSource {
	return &TemplateSource{client: client, bucket: bucket, prefix: prefix}
}

func (s *TemplateSource) Load(ctx context.Context, key string) (templates.Template, error) {
	if key == "" || strings.ContainsAny(key, "/\\") {
		return templates.Template{}, fmt.Errorf("%q: %w", key, templates.ErrNotFound)
	}
	for _, ext := range []string{".html", ".txt"} {
		objKey := path.Clean(s.prefix + key + ext)
		body, err := s.get(ctx, objKey)
		if err == nil {
			return templates.Template{Text: body, HTML: ext == ".html"}, nil
		}
		if !isNotFound(err) {
			return templates.Template{}, err
		}
	}
	return templates.Template{}, fmt.Errorf("%q: %w", key, templates.ErrNotFound)
}

func (s *TemplateSource) get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("s3 get object %s: %w", key, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(io.LimitReader(out.Body, maxTemplateSize))
	if err != nil {
		return "", fmt.Errorf("s3 read object %s: %w", key, err)
	}
	return string(b), nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}
