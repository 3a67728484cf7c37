package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"chronos-reconciler/internal/domain/entity"
)

type fakeDirectory struct {
	users    []entity.ZoomUser
	meetings []entity.ZoomMeeting
	err      error
	calls    atomic.Int32
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}

func (f *fakeDirectory) ListUsersPage(ctx context.Context, offset, limit int) ([]entity.ZoomUser, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return page(f.users, offset, limit), nil
}

func (f *fakeDirectory) ListMeetingsPage(ctx context.Context, offset, limit int) ([]entity.ZoomMeeting, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return page(f.meetings, offset, limit), nil
}

type fakeTokens struct {
	mu      sync.Mutex
	cred    *entity.Credential
	saved   []*entity.Credential
	getErr  error
	saveErr error
}

func (f *fakeTokens) GetCredential(ctx context.Context) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cred == nil {
		return nil, entity.ErrNoCredential
	}
	c := *f.cred
	return &c, nil
}

func (f *fakeTokens) SaveCredential(ctx context.Context, cred *entity.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *cred
	f.cred = &c
	f.saved = append(f.saved, &c)
	return nil
}

type fakeRefresher struct {
	calls atomic.Int32
	token string
	err   error
	delay time.Duration
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*entity.Credential, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	expires := time.Now().Add(time.Hour)
	return &entity.Credential{
		AccessToken:  f.token,
		RefreshToken: "refresh-" + f.token,
		ExpiresAt:    &expires,
	}, nil
}

// fakeConferencing records calls and tracks the peak number of concurrent calls
type fakeConferencing struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	tokens   []string
	delay    time.Duration

	// respond decides the answer of a call; nil means success
	respond func(token, meetingID string) error
}

func (f *fakeConferencing) UpdateMeetingHost(ctx context.Context, accessToken, meetingID, newHostEmail string) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.tokens = append(f.tokens, accessToken)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.respond != nil {
		return f.respond(accessToken, meetingID)
	}
	return nil
}

func (f *fakeConferencing) Peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

func (f *fakeConferencing) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

type fakeMeetings struct {
	mu      sync.Mutex
	batches [][]entity.HostChange
	failOn  map[int]bool
}

func (f *fakeMeetings) UpdateHost(ctx context.Context, meetingID, hostID string) error {
	return f.UpsertHosts(ctx, []entity.HostChange{{MeetingID: meetingID, HostID: hostID}})
}

func (f *fakeMeetings) UpsertHosts(ctx context.Context, changes []entity.HostChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.batches)
	f.batches = append(f.batches, append([]entity.HostChange(nil), changes...))
	if f.failOn[n] {
		return errors.New("store unavailable")
	}
	return nil
}

type fakeRunLog struct {
	mu   sync.Mutex
	runs []*entity.RunLog
}

func (f *fakeRunLog) Save(ctx context.Context, run *entity.RunLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunLog) FindRecent(ctx context.Context, kind string, limit int) ([]*entity.RunLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.RunLog
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if kind == "" || f.runs[i].Kind == kind {
			out = append(out, f.runs[i])
		}
	}
	return out, nil
}

type progressRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (p *progressRecorder) Func() ProgressFunc {
	return func(msg string) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.msgs = append(p.msgs, msg)
	}
}

func (p *progressRecorder) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.msgs...)
}
