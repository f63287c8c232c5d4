package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	ftio "github.com/matzehuels/familytree/pkg/io"
)

const testTree = `title: Smiths
tree:
  id: anna
  name: Anna Smith
  relations:
    - partner: {id: ben, name: Ben Smith}
      married: true
      children:
        - {id: cleo, name: Cleo Smith}
`

// runCLI executes the root command with args and an isolated config and
// cache home.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var buf bytes.Buffer
	root := New(&buf, log.InfoLevel).RootCommand()
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(&buf)
	return root.Execute()
}

func writeTree(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	src := writeTree(t, "smiths.yaml", testTree)
	out := filepath.Join(t.TempDir(), "smiths")

	if err := runCLI(t, "render", src, "-o", out, "-f", "svg,json", "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(out + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "Anna Smith") {
		t.Error("SVG does not name the root")
	}
	if _, err := os.Stat(out + ".json"); err != nil {
		t.Errorf("json artifact missing: %v", err)
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	src := writeTree(t, "smiths.yaml", testTree)
	err := runCLI(t, "render", src, "-f", "dot", "--no-cache")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("render -f dot on the tree view: err = %v, want INVALID_FORMAT", err)
	}
}

func TestLayoutCommand(t *testing.T) {
	src := writeTree(t, "smiths.yaml", testTree)
	if err := runCLI(t, "layout", src, "--no-cache"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(strings.TrimSuffix(src, ".yaml") + ".layout.json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"cards"`) {
		t.Error("layout JSON has no cards")
	}
}

func TestCheckCommand(t *testing.T) {
	clean := writeTree(t, "clean.yaml", testTree)
	if err := runCLI(t, "check", clean); err != nil {
		t.Errorf("check on a clean tree: %v", err)
	}

	broken := writeTree(t, "broken.yaml", `tree:
  id: anna
  name: Anna Smith
  relations:
    - partner: {id: ben, name: Ben Smith}
      children:
        - id: cleo
          name: Cleo Smith
          generation: 4
`)
	if err := runCLI(t, "check", broken); err != nil {
		t.Errorf("check without --strict should only warn: %v", err)
	}
	err := runCLI(t, "check", broken, "--strict")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidTree) {
		t.Errorf("check --strict: err = %v, want INVALID_TREE", err)
	}
}

func TestConvertCommand(t *testing.T) {
	src := writeTree(t, "smiths.yaml", testTree)
	dst := filepath.Join(t.TempDir(), "smiths.json")

	if err := runCLI(t, "convert", src, dst); err != nil {
		t.Fatalf("convert: %v", err)
	}
	doc, err := ftio.Import(dst)
	if err != nil {
		t.Fatal(err)
	}
	tree, _, err := doc.Build()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Smiths" || tree.Len() != 3 {
		t.Errorf("converted %q with %d persons", doc.Title, tree.Len())
	}

	if err := runCLI(t, "convert", src); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("convert without output: err = %v, want INVALID_INPUT", err)
	}
}

func TestUnknownConfigKey(t *testing.T) {
	cfg := writeTree(t, "config.toml", "[render]\ncolour = \"red\"\n")
	src := writeTree(t, "smiths.yaml", testTree)
	if err := runCLI(t, "--config", cfg, "check", src); err == nil {
		t.Error("unknown config key should fail the command")
	}
}
