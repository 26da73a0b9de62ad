package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-storefront/internal/config"
	"github.com/Sternrassler/catalog-storefront/internal/testutil"
	"github.com/Sternrassler/catalog-storefront/pkg/catalog"
)

// execute runs the root command in an empty working directory so no
// storefront.yaml is picked up.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeLines(t *testing.T, r io.Reader) []catalog.Product {
	t.Helper()
	var products []catalog.Product
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var p catalog.Product
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			t.Fatalf("line %d is not a product: %v", len(products)+1, err)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}
	return products
}

func TestExport_WritesEveryProductInOrder(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddProducts(250, 1, "Women")

	out, err := execute(t, "export", "--api-url", mock.URL(), "--concurrency", "3")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	products := decodeLines(t, strings.NewReader(out))
	if len(products) != 250 {
		t.Fatalf("exported %d products, want 250", len(products))
	}
	for i, p := range products {
		if p.ID != int64(i+1) {
			t.Fatalf("products[%d].ID = %d, want %d", i, p.ID, i+1)
		}
	}
	if got := products[0].DepartmentName; got != "Women" {
		t.Errorf("DepartmentName = %q, want Women", got)
	}
}

func TestExport_OutFile(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddProducts(7, 2, "Men")

	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	out, err := execute(t, "export", "--api-url", mock.URL(), "--out", path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty when --out is set", out)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	if got := len(decodeLines(t, f)); got != 7 {
		t.Errorf("exported %d products, want 7", got)
	}
}

func TestExport_UpstreamError(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SetResponse("/api/products", testutil.NewServerErrorResponse())

	_, err := execute(t, "export", "--api-url", mock.URL())
	if err == nil {
		t.Fatal("expected export to fail")
	}
	if !strings.Contains(err.Error(), "Failed to fetch products. Status: 500") {
		t.Errorf("error = %v, want upstream status", err)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	_, err := execute(t, "export", "--api-url", "ftp://catalog.example.com")
	if err == nil || !strings.Contains(err.Error(), "api.base_url") {
		t.Fatalf("error = %v, want api.base_url validation error", err)
	}
}

func TestNewCatalogClient_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		API:   config.APIConfig{BaseURL: "http://localhost:3000", UserAgent: "test", MaxAttempts: 1},
		Redis: config.RedisConfig{Addr: "127.0.0.1:1"},
	}

	_, _, err := newCatalogClient(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "connect to redis") {
		t.Fatalf("error = %v, want redis connection error", err)
	}
}

func TestNewCatalogClient_WithoutRedis(t *testing.T) {
	cfg := &config.Config{
		API: config.APIConfig{BaseURL: "http://localhost:3000", UserAgent: "test", MaxAttempts: 1},
	}

	c, cleanup, err := newCatalogClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newCatalogClient failed: %v", err)
	}
	defer cleanup()

	if c.GetCache() != nil {
		t.Error("expected no revalidation store without redis")
	}
	if err := c.Ready(context.Background()); err != nil {
		t.Errorf("Ready() = %v, want nil", err)
	}
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServe returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not stop after cancel")
	}
}

// chdir switches the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
