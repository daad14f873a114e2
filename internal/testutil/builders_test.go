package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestManifestBuilder_YAML(t *testing.T) {
	t.Parallel()

	doc := NewManifestBuilder().
		WithArchive(ManifestEntry{Path: "/opt/app.tar.gz", Source: "https://example.com/app.tar.gz", Extract: true, ExtractPath: "/opt/app"}).
		WithArchive(ManifestEntry{Path: "/opt/old.zip", Ensure: "absent"}).
		YAML()

	var parsed struct {
		Archives []map[string]interface{} `yaml:"archives"`
	}
	assert.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	assert.Len(t, parsed.Archives, 2)
	assert.Equal(t, true, parsed.Archives[0]["extract"])
	assert.Equal(t, "absent", parsed.Archives[1]["ensure"])
	assert.Equal(t, "archives: []\n", NewManifestBuilder().YAML())
}

func TestArchiveBuilder(t *testing.T) {
	t.Parallel()

	b := NewArchiveBuilder().WithDir("app").WithFile("app/README", "hello")
	assert.Equal(t, "app/", b.Entries()[0].Name)
	assert.NotEmpty(t, b.Tar(t))
	assert.Equal(t, []byte{0x1f, 0x8b}, b.TarGz(t)[:2])
	assert.Equal(t, []byte("PK"), b.Zip(t)[:2])
}
