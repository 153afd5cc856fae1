package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func gbk(t *testing.T, s string) []byte {
	t.Helper()
	data, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return data
}

func TestSinaFetchLive_ParsesGBKBatch(t *testing.T) {
	body := `var hq_str_gb_nvda="英伟达,890.12,1.23,2024-01-05,10.84,880.00";` + "\n" +
		`var hq_str_sh601138="工业富联,24.00,23.50,24.10,24.30,23.40,0,0,12345,67890";` + "\n" +
		`garbage line without structure` + "\n" +
		`var hq_str_rt_hk00700="TENCENT,腾讯控股,370.0,365.0,372.0,364.0,368.4,3.4,0.93,368.2,368.6";` + "\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "https://finance.sina.com.cn", r.Header.Get("Referer"))
		_, _ = w.Write(gbk(t, body))
	}))
	defer srv.Close()

	c := NewSinaClient(srv.URL+"/list=", time.Second)
	snaps, err := c.FetchLive(context.Background(), []string{"gb_nvda", "sh601138", "rt_hk00700"})
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	require.Equal(t, "英伟达", snaps["gb_nvda"].Fields[0])
	require.Equal(t, "890.12", snaps["gb_nvda"].Fields[1])
	require.Equal(t, "24.10", snaps["sh601138"].Fields[3])
	require.Equal(t, "368.4", snaps["rt_hk00700"].Fields[6])
}

func TestSinaFetchLive_MalformedLinesSkippedNotFatal(t *testing.T) {
	body := `var hq_str_gb_nvda="英伟达,890.12,1.23,2024-01-05,10.84";` + "\n" +
		`var hq_str_sh601138="too,short";` + "\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gbk(t, body))
	}))
	defer srv.Close()

	c := NewSinaClient(srv.URL+"/list=", time.Second)
	snaps, err := c.FetchLive(context.Background(), []string{"gb_nvda", "sh601138"})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Contains(t, snaps, "gb_nvda")
}

func TestSinaFetchLive_ErrorsOnBadStatusAndEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewSinaClient(srv.URL+"/list=", time.Second)
	_, err := c.FetchLive(context.Background(), []string{"gb_nvda"})
	require.Error(t, err)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer empty.Close()

	c = NewSinaClient(empty.URL+"/list=", time.Second)
	_, err = c.FetchLive(context.Background(), []string{"gb_nvda"})
	require.Error(t, err)
}

func TestSinaFetchLive_TimeoutIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewSinaClient(srv.URL+"/list=", 20*time.Millisecond)
	_, err := c.FetchLive(context.Background(), []string{"gb_nvda"})
	require.Error(t, err)
}

func TestParseSnapshotLine(t *testing.T) {
	snap, ok := parseSnapshotLine(`var hq_str_sz300308="中际旭创,100.0,99.0,101.5,102.0";`)
	require.True(t, ok)
	require.Equal(t, "sz300308", snap.Code)
	require.Equal(t, "中际旭创", snap.Fields[0])

	_, ok = parseSnapshotLine("")
	require.False(t, ok)
	_, ok = parseSnapshotLine("no equals sign here")
	require.False(t, ok)
	_, ok = parseSnapshotLine(`var unrelated="a,b,c,d,e";`)
	require.False(t, ok)
}
