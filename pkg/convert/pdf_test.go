package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPConverter_Convert(t *testing.T) {
	req := Request{
		WordKey:         "folder/doc.docx",
		WordContainer:   "sharepoint",
		OutputContainer: "sharepoint",
		PDFKey:          "folder/doc.pdf",
	}

	t.Run("posts payload and function key", func(t *testing.T) {
		var gotBody Request
		var gotCode string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCode = r.URL.Query().Get("code")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := NewHTTPConverter(srv.URL, WithFunctionKey("secret"))
		require.NoError(t, c.Convert(context.Background(), req))
		assert.Equal(t, "secret", gotCode)
		assert.Equal(t, req, gotBody)
	})

	t.Run("no function key omits code param", func(t *testing.T) {
		var hasCode bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasCode = r.URL.Query()["code"]
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		require.NoError(t, NewHTTPConverter(srv.URL).Convert(context.Background(), req))
		assert.False(t, hasCode)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "conversion backend offline", http.StatusBadGateway)
		}))
		defer srv.Close()

		err := NewHTTPConverter(srv.URL).Convert(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewHTTPConverter(srv.URL, WithTimeout(20*time.Millisecond))
		assert.Error(t, c.Convert(context.Background(), req))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		c := NewHTTPConverter("http://127.0.0.1:1", WithTimeout(time.Second))
		assert.Error(t, c.Convert(context.Background(), Request{}))
	})
}
