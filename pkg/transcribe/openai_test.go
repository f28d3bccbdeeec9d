package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error": {"message": %q, "type": "test"}}`, message)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*OpenAI, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewOpenAI("test-key", append(Options{OptionBaseURL(srv.URL + "/v1")}, opts...)...)
	require.NoError(t, err)
	return client, srv
}

func TestOpenAITranscribe(t *testing.T) {
	var gotLanguage atomic.Value
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		gotLanguage.Store(r.FormValue("language"))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text": "hello there"}`)
	})

	text, err := client.Transcribe(context.Background(), []byte("RIFF...."), LanguageEnglishUS)
	require.NoError(t, err)
	require.Equal(t, "hello there", text)
	require.Equal(t, "en", gotLanguage.Load())
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Uint32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeError(w, http.StatusInternalServerError, "boom")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text": "second try"}`)
	}, OptionMaxRetries(2))

	text, err := client.Transcribe(context.Background(), []byte("RIFF...."), LanguageAuto)
	require.NoError(t, err)
	require.Equal(t, "second try", text)
	require.Equal(t, uint32(2), calls.Load())
}

func TestOpenAIDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Uint32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusUnauthorized, "bad key")
	}, OptionMaxRetries(3))

	_, err := client.Transcribe(context.Background(), []byte("RIFF...."), LanguageAuto)
	require.ErrorAs(t, err, &ErrAuth{})
	require.Equal(t, uint32(1), calls.Load())
}

func TestOpenAIServerErrorIsReported(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadGateway, "upstream down")
	}, OptionMaxRetries(1))

	_, err := client.Transcribe(context.Background(), []byte("RIFF...."), LanguageAuto)
	var serverErr ErrServer
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, http.StatusBadGateway, serverErr.Code)
}

func TestOpenAITimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}, OptionTimeout(50*time.Millisecond), OptionMaxRetries(0))

	_, err := client.Transcribe(context.Background(), []byte("RIFF...."), LanguageAuto)
	require.ErrorAs(t, err, &ErrTimeout{})
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAI("")
	require.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, isRetryable(ErrTimeout{}))
	require.True(t, isRetryable(ErrNetwork{Err: errors.New("connection refused")}))
	require.True(t, isRetryable(ErrServer{Code: 500}))
	require.True(t, isRetryable(ErrServer{Code: 429}))
	require.False(t, isRetryable(ErrServer{Code: 400}))
	require.False(t, isRetryable(ErrAuth{}))
	require.False(t, isRetryable(errors.New("something else")))
}

func TestLanguageFamily(t *testing.T) {
	require.Equal(t, LanguageFamily("en"), LanguageEnglishUS.Family())
	require.Equal(t, LanguageFamily("uk"), LanguageUkrainian.Family())
	require.Equal(t, LanguageFamily(""), LanguageAuto.Family())
}
