package transcription

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeService(t *testing.T, statuses []string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "https://audio.example/1.wav", r.FormValue("callRecordingLink"))
		fmt.Fprint(w, `{"Code":200,"Status":"OK","Data":{"MediaId":"m-1","Status":"Queued"}}`)
	})
	mux.HandleFunc("/getstatus", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m-1", r.URL.Query().Get("mediaId"))
		n := atomic.AddInt32(&polls, 1)
		status := statuses[len(statuses)-1]
		if int(n) <= len(statuses) {
			status = statuses[n-1]
		}
		fmt.Fprintf(w, `{"Code":200,"Data":{"Status":%q,"TranscriptionTextURL":%q},"Reason":"bad audio"}`, status, srv.URL+"/text/m-1")
	})
	mux.HandleFunc("/text/m-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Customer: the heater is broken.")
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func fastClient(host string) *Client {
	return New(host, WithPolling(5*time.Millisecond, 10), WithRetryElapsed(200*time.Millisecond))
}

func TestTranscribePollsUntilSuccess(t *testing.T) {
	srv, polls := newFakeService(t, []string{"Queued", "Processing", "Success"})
	text, err := fastClient(srv.URL).Transcribe(context.Background(), "https://audio.example/1.wav")
	require.NoError(t, err)
	assert.Equal(t, "Customer: the heater is broken.", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(polls))
}

func TestTranscribeFailedStatus(t *testing.T) {
	srv, _ := newFakeService(t, []string{"Failed"})
	_, err := fastClient(srv.URL).Transcribe(context.Background(), "https://audio.example/1.wav")
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "bad audio")
}

func TestTranscribeTimesOut(t *testing.T) {
	srv, _ := newFakeService(t, []string{"Queued"})
	_, err := fastClient(srv.URL).Transcribe(context.Background(), "https://audio.example/1.wav")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTranscribeExistingTranscript(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcribe":
			fmt.Fprintf(w, `{"Code":200,"Data":{"Status":"Success","TranscriptionURL":%q}}`, srv.URL+"/done")
		case "/done":
			fmt.Fprint(w, "already done")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	text, err := fastClient(srv.URL).Transcribe(context.Background(), "https://audio.example/1.wav")
	require.NoError(t, err)
	assert.Equal(t, "already done", text)
}

func TestPublishRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/transcribe" && atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"Code":500,"Reason":"quota"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetryElapsed(2*time.Second))
	_, err := c.Transcribe(context.Background(), "https://audio.example/1.wav")
	assert.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestMockAndUnconfigured(t *testing.T) {
	text, err := New("", WithMock(true)).Transcribe(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, MockTranscript, text)
	assert.True(t, New("", WithMock(true)).Enabled())

	c := New("")
	assert.False(t, c.Enabled())
	_, err = c.Transcribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
