package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 in-memory bucket implementing the calls used by S3Storage
type fakeS3 struct {
	s3iface.S3API
	objects      map[string][]byte
	contentTypes map[string]string
	failWith     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	f.contentTypes[*in.Key] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type artifact struct {
	Driver string    `json:"driver"`
	Delta  []float64 `json:"delta"`
}

func TestS3Storage_UploadDownloadRoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := New(fake, "telemetry")
	ctx := context.Background()

	in := artifact{Driver: "VER", Delta: []float64{0, 0.1, -0.2}}
	require.NoError(t, s.UploadJSON(ctx, "2023/Monza/R/VER_HAM_fastest_fastest.json.gz", in))
	assert.Equal(t, "application/gzip", fake.contentTypes["2023/Monza/R/VER_HAM_fastest_fastest.json.gz"])
	// gzip magic bytes
	assert.Equal(t, []byte{0x1f, 0x8b}, fake.objects["2023/Monza/R/VER_HAM_fastest_fastest.json.gz"][:2])

	var out artifact
	ok, err := s.DownloadJSON(ctx, "2023/Monza/R/VER_HAM_fastest_fastest.json.gz", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestS3Storage_DownloadMissingAndPlain(t *testing.T) {
	fake := newFakeS3()
	s := New(fake, "telemetry")
	ctx := context.Background()

	var out artifact
	ok, err := s.DownloadJSON(ctx, "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	fake.objects["plain"] = []byte(`{"driver":"HAM","delta":[1]}`)
	ok, err = s.DownloadJSON(ctx, "plain", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "HAM", out.Driver)
}

func TestS3Storage_Errors(t *testing.T) {
	fake := newFakeS3()
	fake.failWith = awserr.New("AccessDenied", "Access Denied", nil)
	s := New(fake, "telemetry")

	assert.Error(t, s.UploadJSON(context.Background(), "k", artifact{}))
	_, err := s.DownloadJSON(context.Background(), "k", &artifact{})
	assert.Error(t, err)

	_, err = NewS3Storage("eu-west-1", "")
	assert.Error(t, err)
}

func TestTelemetryKey(t *testing.T) {
	lap := 33
	assert.Equal(t, "2023/Sao_Paulo_Grand_Prix/R/VER_HAM_33_fastest.json.gz",
		TelemetryKey(2023, "Sao Paulo Grand Prix", "R", "VER", "HAM", &lap, nil))
	assert.Equal(t, "2021/Emilia-Romagna/Q/LEC_SAI_fastest_fastest.json.gz",
		TelemetryKey(2021, "Emilia/Romagna", "Q", "LEC", "SAI", nil, nil))
}
