package container

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"shopee/catalog/internal/config"
	"shopee/catalog/internal/logging"
	"shopee/catalog/internal/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeShopee serves total categories, failing the pages listed in broken
func fakeShopee(t *testing.T, total int, broken ...int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/edu/category-guide/" {
			http.SetCookie(w, &http.Cookie{Name: "SPC_F", Value: "x", Path: "/"})
			_, _ = w.Write([]byte(`<html><head><title>Guia</title></head></html>`))
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		for _, b := range broken {
			if page == b {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

		cats := ""
		for i := (page - 1) * size; i < page*size && i < total; i++ {
			if cats != "" {
				cats += ","
			}
			cats += fmt.Sprintf(`{"category_id":%d,"path":[{"category_name":"Cat %d"},{"category_name":"Sub %d"}],"images":["img%d"]}`, i+1, i%5, i, i)
		}
		_, _ = fmt.Fprintf(w, `{"data":{"total":%d,"global_cats":[%s]}}`, total, cats)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Shopee: config.ShopeeConfig{
			LandingURL: baseURL + "/edu/category-guide/",
			APIURL:     baseURL + "/help/api/v3/global_category/list/",
			PageSize:   10,
			Timeout:    5 * time.Second,
			UserAgent:  "test",
		},
		Output: config.OutputConfig{
			CSVPath:   filepath.Join(dir, "categorias_shopee_api.csv"),
			XLSXPath:  filepath.Join(dir, "categorias_shopee_api.xlsx"),
			XLSXSheet: "Sheet1",
		},
		Database: config.DatabaseConfig{Table: "categorias_shopee", IfExists: config.IfExistsReplace},
		Log:      config.LogConfig{Level: "info"},
	}
}

func TestContainer_Run(t *testing.T) {
	srv := fakeShopee(t, 25, 2)
	cfg := testConfig(t, srv.URL)

	c, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	var out bytes.Buffer
	c.Out = &out

	require.Len(t, c.Sinks, 2)
	assert.True(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "categorias_shopee_api.csv")

	records, err := sink.ReadCSV(cfg.Output.CSVPath)
	require.NoError(t, err)
	// page 2 (ids 11-20) is lost
	require.Len(t, records, 15)
	assert.Equal(t, "10", records[9].CategoryID)
	assert.Equal(t, "21", records[10].CategoryID)
	assert.Equal(t, "Cat 0", records[10].Category)
	assert.Equal(t, "Sub 20", records[10].Subcategory)
	assert.Equal(t, "img20", records[10].CategoryImage)

	f, err := excelize.OpenFile(cfg.Output.XLSXPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Len(t, rows, 16)
}

func TestContainer_RunFailsWithoutRecords(t *testing.T) {
	srv := fakeShopee(t, 25, 1)
	cfg := testConfig(t, srv.URL)

	c, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()
	c.Out = &bytes.Buffer{}

	assert.False(t, c.Run(context.Background()))
	assert.NoFileExists(t, cfg.Output.CSVPath)
	assert.NoFileExists(t, cfg.Output.XLSXPath)
}

func TestContainer_UnreachableBackends(t *testing.T) {
	srv := fakeShopee(t, 5)
	cfg := testConfig(t, srv.URL)
	cfg.Output.XLSXPath = ""
	cfg.Database = config.DatabaseConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     1,
		User:     "postgres",
		Name:     "postgres",
		SSLMode:  "disable",
		Table:    "categorias_shopee",
		IfExists: config.IfExistsReplace,
	}
	cfg.Redis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	c, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	var out bytes.Buffer
	c.Out = &out

	require.Len(t, c.Sinks, 2)
	assert.Equal(t, "postgres", c.Sinks[1].Name())

	// the CSV sink alone is enough
	assert.True(t, c.Run(context.Background()))
	assert.FileExists(t, cfg.Output.CSVPath)
}

func TestNew_NoWorkingProxies(t *testing.T) {
	srv := fakeShopee(t, 5)
	cfg := testConfig(t, srv.URL)
	cfg.Shopee.Proxies = []string{"http://127.0.0.1:1"}

	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
