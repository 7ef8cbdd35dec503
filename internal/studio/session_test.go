package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmorgan81/imagestudio/internal/api"
	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	calls   atomic.Int32
	release chan struct{}
	last    map[string]any
	status  int
	body    string
}

func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	f := &fakeServer{status: status, body: body}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate-image", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&f.last)
		if f.release != nil {
			<-f.release
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	})
	mux.HandleFunc("/api/share", func(w http.ResponseWriter, r *http.Request) {
		var req api.ShareRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(api.ShareResponse{ID: "abc", ImageURL: req.ImageURL, PageURL: req.Prompt})
	})
	mux.HandleFunc("/u.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) okBody() string {
	return `{"imageUrl":"` + f.URL + `/u.png","revisedPrompt":"a fluffy orange cat"}`
}

func TestSubmitSuccess(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	s := NewSession(NewClient(srv.URL, srv.Client()))

	s.SetPrompt("  a cat  ")
	s.SetSettings(Settings{Size: image.SizePortrait, Quality: image.QualityHD, Style: image.StyleNatural})
	require.NoError(t, s.Submit(context.Background()))

	v := s.View()
	assert.Equal(t, Success, v.State)
	assert.Empty(t, v.Error)
	assert.Equal(t, srv.URL+"/u.png", v.Result.URL)
	assert.Equal(t, "a cat", v.Submitted)
	assert.True(t, v.ShowRevisedPrompt())
	assert.Equal(t, map[string]any{
		"prompt":  "a cat",
		"size":    "1024x1792",
		"quality": "hd",
		"style":   "natural",
	}, srv.last)
}

func TestSubmitBlankPrompt(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "{}")
	s := NewSession(NewClient(srv.URL, srv.Client()))

	s.SetPrompt("   ")
	assert.False(t, s.View().CanSubmit())
	assert.ErrorIs(t, s.Submit(context.Background()), ErrEmptyPrompt)

	v := s.View()
	assert.Equal(t, Failed, v.State)
	assert.Equal(t, "Please enter a prompt", v.Error)
	assert.Zero(t, srv.calls.Load())
}

func TestSubmitBlankPromptKeepsImage(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	s := NewSession(NewClient(srv.URL, srv.Client()))
	s.SetPrompt("a cat")
	require.NoError(t, s.Submit(context.Background()))

	s.SetPrompt(" ")
	assert.ErrorIs(t, s.Submit(context.Background()), ErrEmptyPrompt)

	v := s.View()
	assert.Equal(t, Success, v.State)
	assert.Equal(t, "Please enter a prompt", v.Error)
	assert.Equal(t, srv.URL+"/u.png", v.Result.URL)
	assert.Equal(t, "a cat", v.Submitted)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestSubmitServerError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"with message", http.StatusBadRequest, `{"error":"Invalid size. Must be one of: 1024x1024, 1024x1792, 1792x1024"}`, "Invalid size. Must be one of: 1024x1024, 1024x1792, 1792x1024"},
		{"without message", http.StatusBadGateway, `upstream`, "Failed to generate image"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := newFakeServer(t, test.status, test.body)
			s := NewSession(NewClient(srv.URL, srv.Client()))
			s.SetPrompt("a cat")

			err := s.Submit(context.Background())
			var aerr *APIError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, test.status, aerr.StatusCode)

			v := s.View()
			assert.Equal(t, Failed, v.State)
			assert.Equal(t, test.message, v.Error)
			assert.Empty(t, v.Result.URL)
		})
	}
}

func TestSubmitWhileBusy(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	srv.release = make(chan struct{})
	s := NewSession(NewClient(srv.URL, srv.Client()))
	s.SetPrompt("a cat")

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return srv.calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	v := s.View()
	assert.Equal(t, Submitting, v.State)
	assert.False(t, v.CanSubmit())
	assert.ErrorIs(t, s.Submit(context.Background()), ErrBusy)

	s.Clear()
	assert.Equal(t, Submitting, s.View().State)

	close(srv.release)
	require.NoError(t, <-done)
	assert.Equal(t, Success, s.View().State)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestResubmitClearsPreviousResult(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	s := NewSession(NewClient(srv.URL, srv.Client()))
	s.SetPrompt("a cat")
	require.NoError(t, s.Submit(context.Background()))

	srv.status, srv.body = http.StatusInternalServerError, `{"error":"No image generated"}`
	require.Error(t, s.Submit(context.Background()))

	v := s.View()
	assert.Equal(t, Failed, v.State)
	assert.Equal(t, "No image generated", v.Error)
	assert.Empty(t, v.Result.URL)
}

func TestClear(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	s := NewSession(NewClient(srv.URL, srv.Client()))
	s.SetPrompt("a cat")
	require.NoError(t, s.Submit(context.Background()))

	s.Clear()
	assert.Equal(t, View{State: Idle, Settings: DefaultSettings()}, s.View())
}

func TestDownload(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	s := NewSession(NewClient(srv.URL, srv.Client()))
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	var buf bytes.Buffer
	assert.ErrorIs(t, s.Download(context.Background(), &buf), ErrNoImage)

	s.SetPrompt("a cat")
	require.NoError(t, s.Submit(context.Background()))
	require.NoError(t, s.Download(context.Background(), &buf))
	assert.Equal(t, "\x89PNG", buf.String())
	assert.Equal(t, "ai-generated-image-1700000000123.png", s.FileName())
}

func TestDownloadFailureKeepsImage(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = `{"imageUrl":"` + srv.URL + `/gone.png","revisedPrompt":"a cat"}`
	s := NewSession(NewClient(srv.URL, srv.Client()))
	s.SetPrompt("a cat")
	require.NoError(t, s.Submit(context.Background()))

	var buf bytes.Buffer
	require.Error(t, s.Download(context.Background(), &buf))

	v := s.View()
	assert.Equal(t, Success, v.State)
	assert.Equal(t, "Failed to download image", v.Error)
	assert.NotEmpty(t, v.Result.URL)
	assert.False(t, v.ShowRevisedPrompt())
}

func TestShare(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, "")
	srv.body = srv.okBody()
	s := NewSession(NewClient(srv.URL, srv.Client()))

	_, err := s.Share(context.Background())
	assert.ErrorIs(t, err, ErrNoImage)

	s.SetPrompt("a cat")
	require.NoError(t, s.Submit(context.Background()))
	res, err := s.Share(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", res.ID)
	assert.Equal(t, srv.URL+"/u.png", res.ImageURL)
	assert.Equal(t, "a cat", res.PageURL)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "State(9)", State(9).String())
}
