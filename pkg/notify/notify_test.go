package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/entrhq/forumwalk/pkg/config"
	"github.com/entrhq/forumwalk/pkg/retry"
	"github.com/entrhq/forumwalk/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "✅每日登录成功: alice", StatusMessage("alice", false, 5, 10))
	assert.Equal(t, "✅每日登录成功: alice + 浏览任务完成(含评论5-10页)", StatusMessage("alice", true, 5, 10))
}

func TestGotify_Send(t *testing.T) {
	var gotToken, gotType string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/message", r.URL.Path)
		gotToken = r.URL.Query().Get("token")
		gotType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	g := NewGotify(srv.URL+"/", "gtoken")
	require.NoError(t, g.Send(context.Background(), Title, "hello"))

	assert.Equal(t, "gtoken", gotToken)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "LINUX DO", body["title"])
	assert.Equal(t, "hello", body["message"])
	assert.Equal(t, float64(1), body["priority"])
}

func TestGotify_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	err := NewGotify(srv.URL, "bad").Send(context.Background(), Title, "hello")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "gotify", statusErr.Channel)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestWxPush_Send(t *testing.T) {
	var gotAuth string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wxsend", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	require.NoError(t, NewWxPush(srv.URL, "wxtoken").Send(context.Background(), Title, "hi"))
	assert.Equal(t, "wxtoken", gotAuth)
	assert.Equal(t, map[string]string{"title": "LINUX DO", "content": "hi"}, body)
}

func TestNewServerChan(t *testing.T) {
	tests := []struct {
		key     string
		wantUID string
		wantErr bool
	}{
		{key: "sct12345tAbCdEf", wantUID: "12345"},
		{key: "SCT9TXYZ", wantUID: "9"},
		{key: "SCT12345", wantErr: true},
		{key: "abc12345t", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			sc, err := NewServerChan(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, sc.UID())
		})
	}
}

func TestServerChan_Endpoint(t *testing.T) {
	sc, err := NewServerChan("sct42tkey")
	require.NoError(t, err)
	got := sc.endpoint("LINUX DO", "done")
	assert.Equal(t, "https://42.push.ft07.com/send/sct42tkey?desp=done&title=LINUX+DO", got)
}

func TestServerChan_RetriesUntilSuccess(t *testing.T) {
	var calls int32
	var gotTitle, gotDesp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/send/sct7tkey", r.URL.Path)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		gotTitle = r.URL.Query().Get("title")
		gotDesp = r.URL.Query().Get("desp")
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	clock := timing.NewFakeClock(epoch)
	sc, err := NewServerChan("sct7tkey")
	require.NoError(t, err)
	sc.BaseURL = srv.URL
	sc.Retry.Clock = clock
	sc.Retry.Rand = timing.FixedRand{}

	require.NoError(t, sc.Send(context.Background(), Title, "done"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "LINUX DO", gotTitle)
	assert.Equal(t, "done", gotDesp)
	assert.Equal(t, 2, clock.Sleeps())
	assert.Equal(t, 360*time.Second, clock.Slept())
}

func TestServerChan_GivesUpAfterFiveAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	clock := timing.NewFakeClock(epoch)
	sc, err := NewServerChan("sct7tkey")
	require.NoError(t, err)
	sc.BaseURL = srv.URL
	sc.Retry.Clock = clock
	sc.Retry.Rand = timing.FixedRand{}

	err = sc.Send(context.Background(), Title, "done")
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, 4, clock.Sleeps())
}

type recordingNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(_ context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, title+"|"+message)
	return r.err
}

func TestDispatcher_Send(t *testing.T) {
	ok := &recordingNotifier{name: "ok"}
	bad := &recordingNotifier{name: "bad", err: errors.New("boom")}
	d := NewDispatcher(nil, ok, bad)

	err := d.Send(context.Background(), Title, "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.NotContains(t, err.Error(), "ok:")

	assert.Equal(t, []string{"LINUX DO|msg"}, ok.messages)
	assert.Equal(t, []string{"LINUX DO|msg"}, bad.messages)
}

func TestDispatcher_Empty(t *testing.T) {
	d := NewDispatcher(nil)
	assert.NoError(t, d.Send(context.Background(), Title, "msg"))
	assert.Empty(t, d.Channels())
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.NotifyConfig
		want []string
	}{
		{name: "nothing configured", cfg: config.NotifyConfig{}, want: []string{}},
		{
			name: "all channels",
			cfg: config.NotifyConfig{
				GotifyURL: "https://gotify.example.com", GotifyToken: "t",
				ServerChanKey: "sct1tkey",
				WxPushURL:     "https://wx.example.com", WxPushToken: "w",
			},
			want: []string{"gotify", "serverchan", "wxpush"},
		},
		{
			name: "incomplete gotify and bad key",
			cfg: config.NotifyConfig{
				GotifyURL:     "https://gotify.example.com",
				ServerChanKey: "nope",
				WxPushURL:     "https://wx.example.com", WxPushToken: "w",
			},
			want: []string{"wxpush"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromConfig(tt.cfg, nil, retry.Options{}, nil)
			got := d.Channels()
			sort.Strings(got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromConfig_SendsToServers(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := FromConfig(config.NotifyConfig{
		GotifyURL: srv.URL, GotifyToken: "t",
		WxPushURL: srv.URL, WxPushToken: "w",
	}, srv.Client(), retry.Options{}, nil)

	require.NoError(t, d.Send(context.Background(), Title, StatusMessage("alice", true, 5, 10)))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
