package client

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fiszkiapp/fiszki-api/models"
	"github.com/fiszkiapp/fiszki-api/services"
)

// State is the generation view's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateSubmitting
	StateReviewing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file-selected"
	case StateSubmitting:
		return "submitting"
	case StateReviewing:
		return "reviewing"
	default:
		return "unknown"
	}
}

const maxGenerateRetries = 3

// GenerateView owns one generation session's client-side state: file
// selection, submission with transient-failure retries, and the triage of
// returned candidates. All transitions are synchronous; the view is not safe
// for concurrent use.
type GenerateView struct {
	client         *Client
	retryBaseDelay time.Duration

	state          State
	fileName       string
	fileData       []byte
	fileMIME       string
	sessionID      string
	candidates     []models.GeneratedFlashcard
	actionInFlight bool
}

func NewGenerateView(client *Client) *GenerateView {
	return &GenerateView{
		client:         client,
		retryBaseDelay: time.Second,
		state:          StateIdle,
	}
}

func (v *GenerateView) State() State {
	return v.state
}

func (v *GenerateView) SessionID() string {
	return v.sessionID
}

// Candidates returns the pending candidates still awaiting a decision.
func (v *GenerateView) Candidates() []models.GeneratedFlashcard {
	out := make([]models.GeneratedFlashcard, len(v.candidates))
	copy(out, v.candidates)
	return out
}

// SelectFile validates the chosen image and stores it for submission. On a
// validation failure the view keeps its current state.
func (v *GenerateView) SelectFile(name string, data []byte, mimeType string) error {
	if v.state == StateSubmitting {
		return errors.New("generation already in progress")
	}
	if err := services.ValidateImage(mimeType, int64(len(data))); err != nil {
		return err
	}

	v.fileName = name
	v.fileData = data
	v.fileMIME = mimeType
	v.sessionID = ""
	v.candidates = nil
	v.state = StateFileSelected
	return nil
}

// Generate submits the selected image. Transient network failures are retried
// in a bounded loop with linear backoff; API-level failures are surfaced
// immediately with a user-facing message.
func (v *GenerateView) Generate(ctx context.Context) error {
	if v.state == StateSubmitting {
		return errors.New("generation already in progress")
	}
	if v.fileData == nil {
		return errors.New("Please select an image file")
	}

	v.state = StateSubmitting

	var result *services.SessionResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = v.client.GenerateFlashcards(ctx, v.fileName, v.fileData, v.fileMIME)
		if err == nil {
			break
		}
		if attempt >= maxGenerateRetries || !isNetworkError(err) {
			v.state = StateFileSelected
			return err
		}

		select {
		case <-ctx.Done():
			v.state = StateFileSelected
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * v.retryBaseDelay):
		}
	}

	if len(result.Errors) > 0 {
		v.state = StateFileSelected
		return errors.New(translateGenerationErrors(result.Errors))
	}

	if result.ID != nil {
		v.sessionID = strconv.FormatUint(uint64(*result.ID), 10)
	}
	v.candidates = result.Flashcards

	if v.sessionID == "" || len(v.candidates) == 0 {
		v.resetToIdle()
		return nil
	}

	v.state = StateReviewing
	return nil
}

// Accept promotes a candidate as-is.
func (v *GenerateView) Accept(ctx context.Context, candidate models.GeneratedFlashcard) error {
	return v.resolve(ctx, candidate, candidate, models.ActionAccepted)
}

// Reject discards a candidate; only the decision is logged.
func (v *GenerateView) Reject(ctx context.Context, candidate models.GeneratedFlashcard) error {
	return v.resolve(ctx, candidate, candidate, models.ActionRejected)
}

// Edit promotes an edited version of a candidate. The edited fields are
// validated locally first; a violation blocks the submission without any
// network call. On success the original, pre-edit candidate leaves the
// pending set.
func (v *GenerateView) Edit(ctx context.Context, original, edited models.GeneratedFlashcard) error {
	if err := services.ValidateCardFields(edited.Front, edited.Back, edited.Tags); err != nil {
		return err
	}
	return v.resolve(ctx, original, edited, models.ActionEdited)
}

func (v *GenerateView) resolve(ctx context.Context, original, submitted models.GeneratedFlashcard, actionType string) error {
	if v.state != StateReviewing {
		return errors.New("no generation session under review")
	}
	if v.actionInFlight {
		return errors.New("another action is still in progress")
	}
	v.actionInFlight = true
	defer func() { v.actionInFlight = false }()

	submitted.Source = models.SourceAI
	_, err := v.client.LogFlashcardAction(ctx, v.sessionID, services.FlashcardActionCommand{
		ActionType:         actionType,
		GeneratedFlashcard: &submitted,
	})
	if err != nil {
		// The candidate stays in the pending set.
		return err
	}

	v.removeCandidate(original)
	if len(v.candidates) == 0 {
		v.resetToIdle()
	}
	return nil
}

// removeCandidate drops the first matching candidate. Removing a candidate
// that is already gone is a no-op.
func (v *GenerateView) removeCandidate(candidate models.GeneratedFlashcard) {
	for i := range v.candidates {
		if candidatesEqual(v.candidates[i], candidate) {
			v.candidates = append(v.candidates[:i], v.candidates[i+1:]...)
			return
		}
	}
}

func (v *GenerateView) resetToIdle() {
	v.state = StateIdle
	v.fileName = ""
	v.fileData = nil
	v.fileMIME = ""
	v.sessionID = ""
	v.candidates = nil
}

func candidatesEqual(a, b models.GeneratedFlashcard) bool {
	if a.Front != b.Front || a.Back != b.Back || a.Phonetic != b.Phonetic {
		return false
	}
	if len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}

// isNetworkError reports whether the failure happened at the connection
// level, as opposed to an API answer.
func isNetworkError(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func translateGenerationErrors(errs []services.GenerationErrorInfo) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.ErrorCode {
		case "IMAGE_PROCESSING_ERROR":
			messages = append(messages, "Failed to process the image. Please try a different image.")
		case "AI_SERVICE_ERROR":
			messages = append(messages, "AI service is temporarily unavailable. Please try again later.")
		default:
			messages = append(messages, e.ErrorMessage)
		}
	}
	return strings.Join(messages, ", ")
}
