package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/imagestudio/internal/api"
	"github.com/dmorgan81/imagestudio/internal/image"
)

type State int

const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	msgEmptyPrompt    = "Please enter a prompt"
	msgDownloadFailed = "Failed to download image"
	msgUnknown        = "An error occurred"
)

var (
	ErrBusy        = errors.New("a generation is already in progress")
	ErrEmptyPrompt = errors.New(msgEmptyPrompt)
	ErrNoImage     = errors.New("no image has been generated")
)

type Settings struct {
	Size    image.Size
	Quality image.Quality
	Style   image.Style
}

func DefaultSettings() Settings {
	return Settings{Size: image.DefaultSize, Quality: image.DefaultQuality, Style: image.DefaultStyle}
}

// View is a consistent snapshot of a Session.
type View struct {
	State    State
	Prompt   string
	Settings Settings
	Result   image.Result
	Error    string

	// Submitted is the prompt that produced Result.
	Submitted string
}

// CanSubmit reports whether the generate action is enabled.
func (v View) CanSubmit() bool {
	return v.State != Submitting && strings.TrimSpace(v.Prompt) != ""
}

// ShowRevisedPrompt reports whether the provider rewrote the prompt that
// produced the current image.
func (v View) ShowRevisedPrompt() bool {
	return v.State == Success && v.Result.RevisedPrompt != "" && v.Result.RevisedPrompt != v.Submitted
}

// Session holds the form: the prompt being edited, the chosen settings and
// the outcome of the last generation. Only one generation runs at a time.
type Session struct {
	client *Client
	now    func() time.Time

	mu        sync.Mutex
	state     State
	prompt    string
	settings  Settings
	submitted string
	used      Settings
	result    image.Result
	err       string
}

func NewSession(client *Client) *Session {
	return &Session{client: client, now: time.Now, settings: DefaultSettings()}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{State: s.state, Prompt: s.prompt, Settings: s.settings, Error: s.err}
	if s.state == Success {
		v.Result, v.Submitted = s.result, s.submitted
	}
	return v
}

func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

func (s *Session) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Submit generates an image for the current prompt. A blank prompt fails
// without contacting the server and leaves any current image in place.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Submitting {
		s.mu.Unlock()
		return ErrBusy
	}
	prompt := strings.TrimSpace(s.prompt)
	if prompt == "" {
		// A displayed image stays on screen next to the error.
		if s.state != Success {
			s.state = Failed
		}
		s.err = msgEmptyPrompt
		s.mu.Unlock()
		return ErrEmptyPrompt
	}
	settings := s.settings
	s.state, s.err, s.result, s.submitted, s.used = Submitting, "", image.Result{}, prompt, settings
	s.mu.Unlock()

	result, err := s.client.Generate(ctx, prompt, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state, s.err = Failed, failureMessage(err)
		return err
	}
	s.state, s.result = Success, result
	return nil
}

func failureMessage(err error) string {
	var aerr *APIError
	if errors.As(err, &aerr) {
		return aerr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgUnknown
}

// Clear resets the form. It is ignored while a generation is running.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Submitting {
		return
	}
	s.state, s.prompt, s.submitted, s.result, s.err = Idle, "", "", image.Result{}, ""
}

// FileName is the name a downloaded image is saved under.
func (s *Session) FileName() string {
	return fmt.Sprintf("ai-generated-image-%d.png", s.now().UnixMilli())
}

// Download writes the current image to w. A failure is recorded as the
// session error but the image stays displayed.
func (s *Session) Download(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	if s.state != Success {
		s.mu.Unlock()
		return ErrNoImage
	}
	url := s.result.URL
	s.mu.Unlock()

	if err := s.client.Fetch(ctx, url, w); err != nil {
		s.mu.Lock()
		s.err = msgDownloadFailed
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", msgDownloadFailed, err)
	}
	return nil
}

// Share publishes the current image through the server.
func (s *Session) Share(ctx context.Context) (api.ShareResponse, error) {
	s.mu.Lock()
	if s.state != Success {
		s.mu.Unlock()
		return api.ShareResponse{}, ErrNoImage
	}
	req := api.ShareRequest{
		ImageURL:      s.result.URL,
		Prompt:        s.submitted,
		RevisedPrompt: s.result.RevisedPrompt,
		Size:          s.used.Size,
		Quality:       s.used.Quality,
		Style:         s.used.Style,
	}
	s.mu.Unlock()

	result, err := s.client.Share(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.err = failureMessage(err)
		s.mu.Unlock()
		return api.ShareResponse{}, err
	}
	return result, nil
}
