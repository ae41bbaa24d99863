package generation

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"radiocore/internal/catalog"
	"radiocore/internal/domain"
	"radiocore/internal/infra"
	"radiocore/internal/ledger"
	"radiocore/internal/providers/music"
	"radiocore/internal/stream"
)

// ---- stubs ----

type ledgerCall struct {
	kind   string
	amount int
	reason string
}

type stubLedger struct {
	balance    int
	userExists bool
	calls      []ledgerCall
	refundMeta map[string]string
}

func (l *stubLedger) Deduct(ctx context.Context, userID string, amount int, description string) (ledger.DeductResult, error) {
	if !l.userExists {
		return ledger.DeductResult{Reason: domain.ErrUserNotFound}, nil
	}
	if l.balance < amount {
		return ledger.DeductResult{NewBalance: l.balance, Reason: domain.ErrInsufficientCredits}, nil
	}
	l.balance -= amount
	l.calls = append(l.calls, ledgerCall{kind: "deduct", amount: amount})
	return ledger.DeductResult{OK: true, NewBalance: l.balance, TxID: "tx-1"}, nil
}

func (l *stubLedger) Refund(ctx context.Context, userID string, amount int, description string, metadata map[string]string) (int, error) {
	l.balance += amount
	l.calls = append(l.calls, ledgerCall{kind: "refund", amount: amount, reason: metadata["reason"]})
	l.refundMeta = metadata
	return l.balance, nil
}

func (l *stubLedger) refunds() int {
	n := 0
	for _, c := range l.calls {
		if c.kind == "refund" {
			n++
		}
	}
	return n
}

type stubResolver struct {
	content string
	err     error
}

func (r *stubResolver) Resolve(ctx context.Context, userID, prompt, userLyrics string, duration domain.DurationClass) (string, error) {
	return r.content, r.err
}

type scriptedProvider struct {
	name      string
	submitErr error
	statusErr error
	polls     []music.Poll
	i         int
	canceled  bool
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Submit(ctx context.Context, in music.JobInput) (music.Handle, error) {
	if p.submitErr != nil {
		return music.Handle{}, p.submitErr
	}
	return music.Handle{ID: "prov-1", Provider: p.name}, nil
}

func (p *scriptedProvider) Status(ctx context.Context, h music.Handle) (music.Poll, error) {
	if p.statusErr != nil {
		return music.Poll{}, p.statusErr
	}
	if len(p.polls) == 0 {
		return music.Poll{Status: music.StatusProcessing}, nil
	}
	poll := p.polls[p.i]
	if p.i < len(p.polls)-1 {
		p.i++
	}
	return poll, nil
}

func (p *scriptedProvider) Cancel(ctx context.Context, h music.Handle) error {
	p.canceled = true
	return nil
}

type stubPersister struct {
	err   error
	calls []string
}

func (p *stubPersister) Persist(ctx context.Context, kind, userID, libraryID, sourceURL string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.calls = append(p.calls, kind)
	return fmt.Sprintf("https://static.example.com/%s/%s", kind, libraryID), nil
}

type stubCatalog struct {
	saveErr error
	saved   []catalog.NewTrack
	covers  map[string]string
}

func (c *stubCatalog) SaveTrack(ctx context.Context, t catalog.NewTrack) (string, string, error) {
	if c.saveErr != nil {
		return "", "", c.saveErr
	}
	c.saved = append(c.saved, t)
	return "lib-1", "RC-2026-AAAA-BBBBBB", nil
}

func (c *stubCatalog) SetCoverArt(ctx context.Context, libraryID, imageURL string) error {
	if c.covers == nil {
		c.covers = map[string]string{}
	}
	c.covers[libraryID] = imageURL
	return nil
}

type stubJobs struct {
	createErr error
	states    []domain.JobState
}

func (j *stubJobs) Create(ctx context.Context, jobID, userID, provider string, price int) error {
	return j.createErr
}

func (j *stubJobs) SetState(ctx context.Context, jobID string, state domain.JobState, providerJobID, errDetail string) {
	j.states = append(j.states, state)
}

type stubNotifier struct {
	ready  int
	failed int
}

func (n *stubNotifier) TrackReady(ctx context.Context, userID, title, libraryID string) { n.ready++ }
func (n *stubNotifier) TrackFailed(ctx context.Context, userID, title, reason string)   { n.failed++ }
func (n *stubNotifier) CreditChange(ctx context.Context, userID string, amount, balance int, description string) {
}

type stubCoverArt struct {
	url string
	err error
}

func (c *stubCoverArt) Generate(ctx context.Context, prompt string) (string, error) {
	return c.url, c.err
}

// ---- harness ----

type harness struct {
	controller *Controller
	ledger     *stubLedger
	provider   *scriptedProvider
	persister  *stubPersister
	catalog    *stubCatalog
	jobs       *stubJobs
	notifier   *stubNotifier
}

func newHarness() *harness {
	provider := &scriptedProvider{name: music.NameReplicate}
	h := &harness{
		ledger:    &stubLedger{balance: 10, userExists: true},
		provider:  provider,
		persister: &stubPersister{},
		catalog:   &stubCatalog{},
		jobs:      &stubJobs{},
		notifier:  &stubNotifier{},
	}
	h.controller = &Controller{
		Cfg: &infra.Config{
			MusicPrice:      2,
			CoverArtPrice:   1,
			PollInterval:    time.Millisecond,
			PollMaxAttempts: 10,
		},
		Ledger:    h.ledger,
		Router:    &music.Router{Replicate: provider, Fal: provider},
		Resolver:  &stubResolver{content: "resolved lyric content for the song"},
		Persister: h.persister,
		Catalog:   h.catalog,
		Jobs:      h.jobs,
		Notifier:  h.notifier,
		Registry:  NewRegistry(),
		Logger:    infra.NewLogger("production"),
	}
	return h
}

func testRequest(wantCover bool) domain.GenerationRequest {
	req, err := domain.NewGenerationRequest("user-1", domain.RawRequest{
		Title:        "Test Track",
		Prompt:       "an upbeat pop song about summer",
		Language:     "english",
		WantCoverArt: wantCover,
	})
	if err != nil {
		panic(err)
	}
	return req
}

func decodeEvents(t *testing.T, body string) []stream.Event {
	t.Helper()
	var events []stream.Event
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		var ev stream.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("invalid ndjson line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func runJob(t *testing.T, h *harness, req domain.GenerationRequest) (*Job, []stream.Event) {
	t.Helper()
	job, err := h.controller.Prepare(context.Background(), req)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	rec := httptest.NewRecorder()
	h.controller.Run(context.Background(), job, stream.NewEmitter(rec))
	return job, decodeEvents(t, rec.Body.String())
}

func hasState(states []domain.JobState, want domain.JobState) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}

// ---- tests ----

func TestRun_HappyPath(t *testing.T) {
	h := newHarness()
	h.provider.polls = []music.Poll{
		{Status: music.StatusProcessing},
		{Status: music.StatusSucceeded, Output: json.RawMessage(`"https://prov.example.com/out.mp3"`)},
	}

	job, events := runJob(t, h, testRequest(false))

	if len(events) != 2 {
		t.Fatalf("expected started and result events, got %d", len(events))
	}
	if events[0].Type != "started" {
		t.Fatalf("first event must be started, got %q", events[0].Type)
	}
	if events[0].JobID != job.ID {
		t.Fatalf("started event must carry the job id for cancellation, got %q want %q", events[0].JobID, job.ID)
	}
	result := events[1]
	if result.Success == nil || !*result.Success {
		t.Fatalf("expected success result: %+v", result)
	}
	if !strings.HasPrefix(result.AudioURL, "https://static.example.com/audio/") {
		t.Fatalf("result must carry the durable url, got %q", result.AudioURL)
	}
	if result.LibraryID != "lib-1" || result.TrackID == "" {
		t.Fatalf("result must carry catalog ids: %+v", result)
	}
	if result.Credits == nil || *result.Credits != 8 {
		t.Fatalf("expected balance 8 after deduction, got %+v", result.Credits)
	}

	if len(h.catalog.saved) != 1 {
		t.Fatalf("expected 1 saved track, got %d", len(h.catalog.saved))
	}
	if h.catalog.saved[0].AudioURL != result.AudioURL {
		t.Fatalf("catalog and stream must agree on the audio url")
	}
	if h.ledger.refunds() != 0 {
		t.Fatalf("successful delivery must not refund")
	}
	for _, want := range []domain.JobState{domain.StateSubmitted, domain.StatePolling, domain.StateSucceeded, domain.StatePersisted} {
		if !hasState(h.jobs.states, want) {
			t.Fatalf("missing state %q in %v", want, h.jobs.states)
		}
	}
	if h.notifier.ready != 1 {
		t.Fatalf("expected 1 track-ready notification")
	}
}

func TestRun_ProviderFailureRefundsAndSanitizes(t *testing.T) {
	h := newHarness()
	h.provider.polls = []music.Poll{
		{Status: music.StatusFailed, Err: "replicate api key invalid at https://internal.host"},
	}

	_, events := runJob(t, h, testRequest(false))

	result := events[len(events)-1]
	if result.Success == nil || *result.Success {
		t.Fatalf("expected failure result: %+v", result)
	}
	if strings.Contains(result.Error, "api") || strings.Contains(result.Error, "replicate") || strings.Contains(result.Error, "internal.host") {
		t.Fatalf("raw provider detail leaked to client: %q", result.Error)
	}
	if result.Refunded == nil || !*result.Refunded {
		t.Fatalf("failure must report the refund: %+v", result)
	}
	if result.Credits == nil || *result.Credits != 10 {
		t.Fatalf("expected balance restored to 10, got %+v", result.Credits)
	}
	if h.ledger.refunds() != 1 {
		t.Fatalf("expected exactly one refund, got %d", h.ledger.refunds())
	}
	if h.ledger.refundMeta["reason"] != "provider_failed" {
		t.Fatalf("expected provider_failed refund reason, got %q", h.ledger.refundMeta["reason"])
	}
	if h.ledger.refundMeta["detail"] == "" {
		t.Fatalf("raw detail must be preserved in refund metadata")
	}
	if !hasState(h.jobs.states, domain.StateRefunded) {
		t.Fatalf("job must end refunded: %v", h.jobs.states)
	}
}

func TestRun_SubmitFailureRefunds(t *testing.T) {
	h := newHarness()
	h.provider.submitErr = errors.New("dial tcp: connection refused")

	_, events := runJob(t, h, testRequest(false))

	result := events[len(events)-1]
	if result.Success == nil || *result.Success {
		t.Fatalf("expected failure result")
	}
	if h.ledger.refunds() != 1 {
		t.Fatalf("submit failure must refund")
	}
	if h.ledger.balance != 10 {
		t.Fatalf("balance must be fully restored, got %d", h.ledger.balance)
	}
}

func TestRun_TimeoutRefunds(t *testing.T) {
	h := newHarness()
	h.controller.Cfg.PollMaxAttempts = 3
	// default scripted status is processing forever

	_, events := runJob(t, h, testRequest(false))

	result := events[len(events)-1]
	if result.Success == nil || *result.Success {
		t.Fatalf("expected failure result")
	}
	if h.ledger.refundMeta["reason"] != "timed_out" {
		t.Fatalf("expected timed_out reason, got %q", h.ledger.refundMeta["reason"])
	}
	if !h.provider.canceled {
		t.Fatalf("timeout should attempt upstream cancel")
	}
}

func TestRun_PersistFailureAfterProviderSuccessRefunds(t *testing.T) {
	h := newHarness()
	h.provider.polls = []music.Poll{
		{Status: music.StatusSucceeded, Output: json.RawMessage(`"https://prov.example.com/out.mp3"`)},
	}
	h.persister.err = errors.New("disk full")

	_, events := runJob(t, h, testRequest(false))

	result := events[len(events)-1]
	if result.Success == nil || *result.Success {
		t.Fatalf("provider success without a durable artifact is not a delivery")
	}
	if h.ledger.refunds() != 1 || h.ledger.refundMeta["reason"] != "persist_failed" {
		t.Fatalf("expected persist_failed refund, got %v", h.ledger.refundMeta)
	}
	if len(h.catalog.saved) != 0 {
		t.Fatalf("no track may be cataloged without its artifact")
	}
}

func TestRun_CancelRefunds(t *testing.T) {
	h := newHarness()
	h.controller.Cfg.PollMaxAttempts = 1000

	job, err := h.controller.Prepare(context.Background(), testRequest(false))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.controller.Registry.Cancel(job.ID, "user-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	rec := httptest.NewRecorder()
	h.controller.Run(context.Background(), job, stream.NewEmitter(rec))

	events := decodeEvents(t, rec.Body.String())
	if events[0].Type != "started" || events[0].JobID != job.ID {
		t.Fatalf("started event must name the job being cancelled: %+v", events[0])
	}
	result := events[len(events)-1]
	if result.Success == nil || *result.Success {
		t.Fatalf("expected failure result after cancel")
	}
	if h.ledger.refundMeta["reason"] != "user_cancelled" {
		t.Fatalf("expected user_cancelled reason, got %q", h.ledger.refundMeta["reason"])
	}
	if !h.provider.canceled {
		t.Fatalf("cancel should be forwarded upstream")
	}
}

func TestRegistry_CancelOwnerChecked(t *testing.T) {
	h := newHarness()
	job, err := h.controller.Prepare(context.Background(), testRequest(false))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if err := h.controller.Registry.Cancel(job.ID, "someone-else"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("foreign cancel must look like a missing job, got %v", err)
	}
	if err := h.controller.Registry.Cancel("no-such-job", "user-1"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("unknown job must return ErrJobNotFound, got %v", err)
	}
}

func TestRun_DisconnectDoesNotAbortPipeline(t *testing.T) {
	h := newHarness()
	h.provider.polls = []music.Poll{
		{Status: music.StatusProcessing},
		{Status: music.StatusSucceeded, Output: json.RawMessage(`"https://prov.example.com/out.mp3"`)},
	}

	job, err := h.controller.Prepare(context.Background(), testRequest(false))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	// A writer that dies immediately stands in for a dropped connection,
	// and a cancelled request context stands in for the transport.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.controller.Run(ctx, job, stream.NewEmitter(deadWriter{}))

	if len(h.catalog.saved) != 1 {
		t.Fatalf("track must be persisted despite the dead client")
	}
	if h.ledger.refunds() != 0 {
		t.Fatalf("completed work must not be refunded on disconnect")
	}
	if !hasState(h.jobs.states, domain.StatePersisted) {
		t.Fatalf("job must reach persisted: %v", h.jobs.states)
	}
}

func TestPrepare_InsufficientCredits(t *testing.T) {
	h := newHarness()
	h.ledger.balance = 1

	_, err := h.controller.Prepare(context.Background(), testRequest(false))
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if h.ledger.refunds() != 0 {
		t.Fatalf("a rejected deduction has nothing to refund")
	}
}

func TestPrepare_UnknownUser(t *testing.T) {
	h := newHarness()
	h.ledger.userExists = false

	_, err := h.controller.Prepare(context.Background(), testRequest(false))
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPrepare_QuotaExceededBeforeDeduction(t *testing.T) {
	h := newHarness()
	h.controller.Resolver = &stubResolver{err: domain.ErrQuotaExceeded}

	_, err := h.controller.Prepare(context.Background(), testRequest(false))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if len(h.ledger.calls) != 0 {
		t.Fatalf("quota rejection must precede any ledger activity: %v", h.ledger.calls)
	}
}

func TestPrepare_JobRowFailureRefundsImmediately(t *testing.T) {
	h := newHarness()
	h.jobs.createErr = errors.New("insert failed")

	if _, err := h.controller.Prepare(context.Background(), testRequest(false)); err == nil {
		t.Fatalf("expected prepare error")
	}
	if h.ledger.refunds() != 1 || h.ledger.balance != 10 {
		t.Fatalf("hold must be released when the job row cannot be written")
	}
}

func TestRun_CoverArtSubJob(t *testing.T) {
	h := newHarness()
	h.provider.polls = []music.Poll{
		{Status: music.StatusSucceeded, Output: json.RawMessage(`"https://prov.example.com/out.mp3"`)},
	}
	h.controller.CoverArt = &stubCoverArt{url: "https://prov.example.com/cover.webp"}

	_, events := runJob(t, h, testRequest(true))

	result := events[len(events)-1]
	if result.ImageURL == "" {
		t.Fatalf("expected cover art url in result")
	}
	if h.catalog.covers["lib-1"] == "" {
		t.Fatalf("cover must be attached to the track")
	}
	if result.Credits == nil || *result.Credits != 7 {
		t.Fatalf("expected balance 7 after music and cover deductions, got %+v", result.Credits)
	}
}

func TestRun_CoverArtFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.provider.polls = []music.Poll{
		{Status: music.StatusSucceeded, Output: json.RawMessage(`"https://prov.example.com/out.mp3"`)},
	}
	h.controller.CoverArt = &stubCoverArt{err: errors.New("image model down")}

	_, events := runJob(t, h, testRequest(true))

	result := events[len(events)-1]
	if result.Success == nil || !*result.Success {
		t.Fatalf("cover art failure must not fail the track: %+v", result)
	}
	if result.ImageURL != "" {
		t.Fatalf("failed cover must not surface a url")
	}
	if h.ledger.balance != 8 {
		t.Fatalf("cover deduction must be returned, balance %d", h.ledger.balance)
	}
}

func TestRun_CoverArtSkippedWhenBroke(t *testing.T) {
	h := newHarness()
	h.ledger.balance = 2 // exactly the music price, nothing left for the cover
	h.provider.polls = []music.Poll{
		{Status: music.StatusSucceeded, Output: json.RawMessage(`"https://prov.example.com/out.mp3"`)},
	}
	h.controller.CoverArt = &stubCoverArt{url: "https://prov.example.com/cover.webp"}

	_, events := runJob(t, h, testRequest(true))

	result := events[len(events)-1]
	if result.Success == nil || !*result.Success {
		t.Fatalf("track must still succeed: %+v", result)
	}
	if result.ImageURL != "" {
		t.Fatalf("cover must be skipped on empty balance")
	}
}

// deadWriter fails every write, like a connection reset before the first
// byte.
type deadWriter struct{}

func (deadWriter) Header() http.Header       { return http.Header{} }
func (deadWriter) WriteHeader(int)           {}
func (deadWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }
