package s3

import (
	"testing"

	"cleanbook/config"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	name := ObjectName("Living Room.JPG")

	assert.Regexp(t, `^[0-9a-f-]{36}\.jpg$`, name)
	assert.NotEqual(t, name, ObjectName("Living Room.JPG"))
}

func TestGetObjectNameFromURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.External.S3.BucketName = "cleanbook"
	cfg.External.S3.PublicDomain = "https://cdn.example.com/"
	cfg.External.S3.APIEndpoint = "https://s3.example.com"

	svc := &s3Impl{cfg: cfg}

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "public domain", url: "https://cdn.example.com/service/a1.jpg", want: "a1.jpg"},
		{name: "api endpoint", url: "https://s3.example.com/cleanbook/cleaner/b2.png", want: "b2.png"},
		{name: "other bucket", url: "https://s3.example.com/other/cleaner/b2.png", want: ""},
		{name: "foreign host", url: "https://images.example.org/x.jpg", want: ""},
		{name: "bare domain", url: "https://cdn.example.com/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.GetObjectNameFromURL("", tt.url))
		})
	}
}

func TestObjectURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.External.S3.PublicDomain = "https://cdn.example.com/"

	svc := &s3Impl{cfg: cfg}

	assert.Equal(t, "https://cdn.example.com/cleaner/a1.jpg", svc.objectURL("cleaner/a1.jpg"))
}
