package configdoc

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/genhoi/unit/internal/testutil"
	"github.com/genhoi/unit/internal/value"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestOpenParsesDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "unitd.json", []byte(`{"server":{"listen_addr":":8080"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := Open(fs, "unitd.json", testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok := d.Get("/server/listen_addr")
	if !ok || got.Str() != ":8080" {
		t.Fatalf("expected listen_addr, got %v ok=%v", got, ok)
	}
}

func TestPatchAppliesAndPersistsInMemory(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "unitd.json", []byte(`{"a":1}`), 0o644)
	d, err := Open(fs, "unitd.json", testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	nv := value.NewInt(2)
	_, status, err := d.Patch("/b", &nv)
	if err != nil || status != 0 {
		t.Fatalf("Patch failed: status=%v err=%v", status, err)
	}
	got, ok := d.Get("/b")
	if !ok || got.Int() != 2 {
		t.Fatalf("expected /b=2, got %v ok=%v", got, ok)
	}
	if got, ok := d.Get("/a"); !ok || got.Int() != 1 {
		t.Fatalf("expected /a unchanged, got %v ok=%v", got, ok)
	}
}

func TestPatchDeclinedOnMissingPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "unitd.json", []byte(`{"a":1}`), 0o644)
	d, err := Open(fs, "unitd.json", testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, status, err := d.Patch("/x/y", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status == 0 {
		t.Fatalf("expected a declined status")
	}
}

func TestOpenFromRealFilesystem(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sb.Cleanup()

	if err := sb.WriteFile("unitd.json", []byte(`{"logging":{"level":"debug"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := Open(afero.NewOsFs(), sb.Path("unitd.json"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok := d.Get("/logging/level")
	if !ok || got.Str() != "debug" {
		t.Fatalf("expected logging.level=debug, got %v ok=%v", got, ok)
	}
}

func TestReloadPicksUpFileChange(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "unitd.json", []byte(`{"a":1}`), 0o644)
	d, err := Open(fs, "unitd.json", testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	afero.WriteFile(fs, "unitd.json", []byte(`{"a":2}`), 0o644)
	if err := d.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := d.Get("/a")
	if !ok || got.Int() != 2 {
		t.Fatalf("expected reloaded /a=2, got %v ok=%v", got, ok)
	}
}
