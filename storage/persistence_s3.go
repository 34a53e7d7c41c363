/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Factory builds an archival PersistenceEngine backed by S3 or an
// S3-compatible endpoint (MinIO, etc.), for partitions too cold to justify
// local disk. Shaped after storage/persistence-s3.go's S3Factory/S3Storage,
// narrowed to this engine's artifact model (no log segments: see
// persistence.go).
type S3Factory struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool
}

func (f *S3Factory) OpenPersistence(root string) PersistenceEngine {
	pfx := strings.TrimSuffix(f.Prefix, "/")
	if pfx != "" && root != "" {
		pfx = pfx + "/" + root
	} else if root != "" {
		pfx = root
	}
	return &S3Storage{factory: f, prefix: pfx}
}

type S3Storage struct {
	factory *S3Factory
	prefix  string

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func (s *S3Storage) ensureOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return
	}
	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if s.factory.Region != "" {
		opts = append(opts, config.WithRegion(s.factory.Region))
	}
	if s.factory.AccessKeyID != "" && s.factory.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.factory.AccessKeyID, s.factory.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("persistence: s3 config: %v", err))
	}
	var s3Opts []func(*s3.Options)
	if s.factory.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(s.factory.Endpoint) })
	}
	if s.factory.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	s.client = s3.NewFromConfig(cfg, s3Opts...)
	s.opened = true
}

func (s *S3Storage) key(partition, name string) string {
	if partition == "" {
		return s.prefix + "/" + name
	}
	return s.prefix + "/" + partition + "/" + name
}

func (s *S3Storage) ReadSchema(partition string) []byte {
	s.ensureOpen()
	resp, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.factory.Bucket), Key: aws.String(s.key(partition, "schema.json")),
	})
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data
}

func (s *S3Storage) WriteSchema(partition string, schema []byte) {
	s.ensureOpen()
	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.factory.Bucket), Key: aws.String(s.key(partition, "schema.json")), Body: bytes.NewReader(schema),
	})
	if err != nil {
		panic(fmt.Sprintf("persistence: s3 write schema: %v", err))
	}
}

func (s *S3Storage) ReadArtifact(partition string, name string) io.ReadCloser {
	s.ensureOpen()
	resp, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.factory.Bucket), Key: aws.String(s.key(partition, name)),
	})
	if err != nil {
		return ErrorReader{err}
	}
	return resp.Body
}

type s3WriteCloser struct {
	s         *S3Storage
	key       string
	buf       bytes.Buffer
	closed    bool
}

func (w *s3WriteCloser) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *s3WriteCloser) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_, err := w.s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(w.s.factory.Bucket), Key: aws.String(w.key), Body: bytes.NewReader(w.buf.Bytes()),
	})
	return err
}

func (s *S3Storage) WriteArtifact(partition string, name string) io.WriteCloser {
	s.ensureOpen()
	return &s3WriteCloser{s: s, key: s.key(partition, name)}
}

func (s *S3Storage) RemoveArtifact(partition string, name string) {
	s.ensureOpen()
	_, _ = s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.factory.Bucket), Key: aws.String(s.key(partition, name)),
	})
}

func (s *S3Storage) RemovePartition(partition string) {
	s.ensureOpen()
	pfx := s.key(partition, "")
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.factory.Bucket), Prefix: aws.String(pfx),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			break
		}
		for _, obj := range page.Contents {
			_, _ = s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
				Bucket: aws.String(s.factory.Bucket), Key: obj.Key,
			})
		}
	}
}
