package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/rate-intel/internal/domain"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

var collectedAt = time.Date(2026, 6, 1, 12, 30, 15, 0, time.UTC)

func sampleObs() []domain.CompetitorObservation {
	return []domain.CompetitorObservation{{
		CompetitorID: "c1", CompetitorName: "Harbor", RoomTypeCode: "STD",
		Rate: decimal.RequireFromString("129"), Currency: "USD",
		Date: time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), Available: true, Source: domain.SourceProvider,
	}}
}

func TestArchive_WritesJSONUnderPropertyPrefix(t *testing.T) {
	fake := &fakeS3{}
	a := New(fake, Config{Bucket: "rates", Prefix: "/competitor-rates/"})

	key, err := a.Archive(context.Background(), "prop-1", collectedAt, sampleObs())
	require.NoError(t, err)

	assert.Equal(t, "competitor-rates/prop-1/20260601T123015.000Z.json", key)
	assert.Equal(t, "rates", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(fake.input.ContentType))
	assert.Nil(t, fake.input.ContentEncoding)

	var snap snapshot
	require.NoError(t, json.Unmarshal(fake.body, &snap))
	assert.Equal(t, "prop-1", snap.PropertyID)
	require.Len(t, snap.Observations, 1)
	assert.Equal(t, "c1", snap.Observations[0].CompetitorID)
}

func TestArchive_Compressed(t *testing.T) {
	fake := &fakeS3{}
	a := New(fake, Config{Bucket: "rates", Prefix: "snap", Compress: true})

	key, err := a.Archive(context.Background(), "prop-1", collectedAt, sampleObs())
	require.NoError(t, err)
	assert.Equal(t, "snap/prop-1/20260601T123015.000Z.json.gz", key)
	assert.Equal(t, "gzip", aws.ToString(fake.input.ContentEncoding))

	gz, err := gzip.NewReader(bytes.NewReader(fake.body))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"competitor_id":"c1"`)
}

func TestArchive_UploadError(t *testing.T) {
	a := New(&fakeS3{err: errors.New("access denied")}, Config{Bucket: "rates"})
	_, err := a.Archive(context.Background(), "prop-1", collectedAt, sampleObs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
