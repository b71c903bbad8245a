package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Timeout for s3 transfers.
const TransferTimeout = 30 * time.Second

// The Resource class wraps a streamable file or remote Resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Return the remote path to this resource. If this is a remote resource then
// this method returns the base path (without leading /) of the remote URL.
// Otherwise, this method returns the same value as Path().
func (r *Resource) RemotePath() string {
	if r.IsRemote() {
		return filepath.Base(r.url.Path)
	}
	return r.Path()
}

// Returns true if the Resource is streamed over http/https or s3.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Factory for the s3 client used by the s3:// scheme. Tests may override it.
var S3Client = func() (s3iface.S3API, error) {
	cfg := &aws.Config{
		S3ForcePathStyle: aws.Bool(true),
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		cfg.Region = aws.String(region)
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey := os.Getenv("S3_ACCESS_KEY"); accessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, os.Getenv("S3_SECRET_KEY"), "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("resource: could not create s3 session: %w", err)
	}
	return s3.New(sess), nil
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// does not define a scheme, then the path to the new Resource will be generated
// by concatenating the base path of relTo and pathToResource.
//
// This function can handle http/https URLs by delegating to the net/http package
// and s3://bucket/key URLs by delegating to the aws sdk.
// The caller must make sure to close the returned io.ReadCloser to prevent mem leaks.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	// Replace forward slashes with backslaces and try parsing as a URL
	url, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	// If this is a relative url, clone parent url and adjust its path
	if url.Scheme == "" && relTo != nil {
		path := url.Path
		url, _ = url.Parse(relTo.url.String())
		prefix := url.Path
		if url.Scheme == "" {
			prefix, err = filepath.Abs(relTo.url.String())
			if err != nil {
				return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", relTo.url.String(), err.Error())
			}
		}
		url.Path = filepath.Dir(prefix) + "/" + path
	}

	var reader io.ReadCloser
	switch url.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(url.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(url.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", url.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", url.String(), resp.StatusCode)
		}
		reader = resp.Body
	case "s3":
		reader, err = fetchS3(url)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", url.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        url,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	url, _ := url.Parse(name)
	return &Resource{
		ReadCloser: ioutil.NopCloser(source),
		url:        url,
	}
}

// Write data to a local file or an s3://bucket/key destination.
func Store(path string, data []byte) error {
	url, err := url.Parse(strings.Replace(path, `\`, `/`, -1))
	if err != nil {
		return err
	}

	switch url.Scheme {
	case "":
		return ioutil.WriteFile(filepath.Clean(url.Path), data, 0644)
	case "s3":
		return storeS3(url, data)
	default:
		return fmt.Errorf("resource: unsupported scheme '%s'", url.Scheme)
	}
}

func s3Location(url *url.URL) (bucket, key string, err error) {
	bucket = url.Host
	key = strings.TrimPrefix(url.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("resource: invalid s3 location '%s'", url.String())
	}
	return bucket, key, nil
}

func fetchS3(url *url.URL) (io.ReadCloser, error) {
	bucket, key, err := s3Location(url)
	if err != nil {
		return nil, err
	}

	client, err := S3Client()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), TransferTimeout)
	defer cancel()

	out, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %w", url.String(), err)
	}
	defer out.Body.Close()

	// Buffer the object so the body outlives the request context
	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %w", url.String(), err)
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func storeS3(url *url.URL, data []byte) error {
	bucket, key, err := s3Location(url)
	if err != nil {
		return err
	}

	client, err := S3Client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), TransferTimeout)
	defer cancel()

	_, err = client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("resource: could not upload '%s': %w", url.String(), err)
	}
	return nil
}

func contentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
