package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediakit/internal/config"
	"mediakit/internal/logging"
	"mediakit/internal/services"
)

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.inputs = append(f.inputs, input)
	body, _ := io.ReadAll(input.Body)
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{Key: input.Key}, nil
}

func writeArtifact(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("zipdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "a.zip"},
		{"mediakit", "mediakit/a.zip"},
		{"/nested/path/", "nested/path/a.zip"},
	}
	for _, tc := range tests {
		m := NewWithUploader(Config{Prefix: tc.prefix}, &fakeUploader{}, logging.NewNop(), nil)
		if got := m.Key("a.zip"); got != tc.want {
			t.Errorf("Key with prefix %q = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestPublishUploadsFile(t *testing.T) {
	up := &fakeUploader{}
	m := NewWithUploader(Config{Bucket: "media", Prefix: "out"}, up, logging.NewNop(), nil)

	loc, err := m.Publish(context.Background(), writeArtifact(t, "job-bootanimation-module.zip"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if loc != "s3://media/out/job-bootanimation-module.zip" {
		t.Fatalf("unexpected location %q", loc)
	}
	if len(up.inputs) != 1 {
		t.Fatalf("expected one upload, got %d", len(up.inputs))
	}
	in := up.inputs[0]
	if aws.ToString(in.Bucket) != "media" || aws.ToString(in.Key) != "out/job-bootanimation-module.zip" {
		t.Fatalf("unexpected input %+v", in)
	}
	if aws.ToString(in.ContentType) != "application/zip" {
		t.Fatalf("unexpected content type %q", aws.ToString(in.ContentType))
	}
	if string(up.bodies[0]) != "zipdata" {
		t.Fatalf("unexpected body %q", up.bodies[0])
	}
}

func TestPublishFailure(t *testing.T) {
	m := NewWithUploader(Config{Bucket: "media"}, &fakeUploader{err: errors.New("access denied")}, logging.NewNop(), nil)
	_, err := m.Publish(context.Background(), writeArtifact(t, "a.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestPublishMissingFile(t *testing.T) {
	m := NewWithUploader(Config{Bucket: "media"}, &fakeUploader{}, logging.NewNop(), nil)
	if _, err := m.Publish(context.Background(), filepath.Join(t.TempDir(), "gone.zip")); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestDisabledMirror(t *testing.T) {
	cfg := config.Default()
	if m := FromConfig(&cfg, logging.NewNop(), nil); m != nil {
		t.Fatal("expected nil mirror when publishing is disabled")
	}
	var m *Mirror
	if m.Enabled() {
		t.Fatal("nil mirror must report disabled")
	}
	if loc, err := m.Publish(context.Background(), "x"); loc != "" || err != nil {
		t.Fatalf("nil mirror Publish = %q, %v", loc, err)
	}
}

func TestFromConfigEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Publish.Enabled = true
	cfg.Publish.Bucket = "media"
	cfg.Publish.Endpoint = "http://127.0.0.1:9000"
	cfg.Publish.UsePathStyle = true
	m := FromConfig(&cfg, logging.NewNop(), nil)
	if !m.Enabled() {
		t.Fatal("expected enabled mirror")
	}
}
