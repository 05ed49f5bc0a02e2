package adapter_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/m-mizutani/intellica/pkg/model"
)

func TestStorageUpload(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	ctx := context.Background()
	storage, err := adapter.NewStorage(ctx, bucket)
	gt.NoError(t, err)

	key := "test/" + string(model.NewSessionID()) + ".txt"
	url, err := storage.Upload(ctx, key, "text/plain", []byte("user: hello\n"))
	gt.NoError(t, err)
	gt.True(t, strings.HasPrefix(url, "gs://"+bucket+"/"))
	gt.True(t, strings.HasSuffix(url, key))
}
