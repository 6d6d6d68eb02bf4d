package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	vault_errors "imagevault/pkg/errors"
	"imagevault/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
}

// Client is the object-store gateway. It wraps the AWS SDK with the three
// operations the upload pipeline needs: put, best-effort delete, and
// read-time presigning.
type Client struct {
	cfg     S3Config
	s3      *s3.Client
	presign *s3.PresignClient
	log     *logger.Logger
}

func NewClient(ctx context.Context, cfg S3Config, log *logger.Logger) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if parsed, err := url.Parse(endpoint); err == nil {
			endpoint = parsed.String()
		}
		opts = append(opts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if service == s3.ServiceID {
					return aws.Endpoint{URL: endpoint, SigningRegion: cfg.Region}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &Client{
		cfg:     cfg,
		s3:      s3Client,
		presign: s3.NewPresignClient(s3Client),
		log:     log,
	}, nil
}

// PutInput carries one object write.
type PutInput struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
	Public      bool
}

// Put writes the object. A public-read ACL is set only when Public is true;
// everything else stays private and is reachable through presigned URLs.
func (c *Client) Put(ctx context.Context, in PutInput) error {
	if in.Key == "" {
		return fmt.Errorf("%w: object key is required", vault_errors.ErrStorageFailure)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(in.Key),
		Body:        bytes.NewReader(in.Body),
		ContentType: aws.String(in.ContentType),
	}
	if len(in.Metadata) > 0 {
		input.Metadata = in.Metadata
	}
	if in.Public {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("%w: put %s: %v", vault_errors.ErrStorageFailure, in.Key, err)
	}
	return nil
}

// Delete removes an object. S3 delete is idempotent, so a missing key is not
// an error. Callers treat any returned error as log-and-continue; deletion is
// always best effort.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", vault_errors.ErrStorageFailure, key, err)
	}
	return nil
}

// PresignGet produces a time-limited read URL for key. The object does not
// have to exist; URL issuance and object existence are independent. On signer
// failure it degrades to the canonical unsigned URL rather than failing.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) string {
	if key == "" {
		return ""
	}

	presigned, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		if ttl > 0 {
			po.Expires = ttl
		}
	})
	if err != nil {
		if c.log != nil {
			c.log.Warnf("presign failed for %s, falling back to canonical url: %v", key, err)
		}
		return c.FileURL(key)
	}
	return presigned.URL
}

// FileURL returns the canonical, unsigned URL for key.
func (c *Client) FileURL(key string) string {
	if key == "" {
		return ""
	}
	if c.cfg.PublicBase != "" {
		return strings.TrimSuffix(c.cfg.PublicBase, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
}
