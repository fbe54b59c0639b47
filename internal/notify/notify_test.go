package notify

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Entry {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log.WithFields(logrus.Fields{})
}

// chatServer records chat.postMessage requests
type chatServer struct {
	server   *httptest.Server
	requests []postMessageReq
	headers  []http.Header
	status   int
}

func newChatServer(status int) *chatServer {
	cs := &chatServer{status: status}
	cs.server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req postMessageReq
			_ = json.NewDecoder(r.Body).Decode(&req)
			cs.requests = append(cs.requests, req)
			cs.headers = append(cs.headers, r.Header.Clone())
			w.WriteHeader(cs.status)
		},
	))
	return cs
}

func (cs *chatServer) account() *Account {
	return &Account{
		BaseURL:   cs.server.URL,
		UserID:    "watchdog-bot",
		AuthToken: "secret-token",
	}
}

func TestSendPostsToNamedChannel(t *testing.T) {
	cs := newChatServer(http.StatusOK)
	defer cs.server.Close()

	n := NewNotifier(discardLogger(), ChannelRocketChat, "#gateway-ops", cs.account())
	require.NoError(t, n.Send(context.Background(), "gateway is in trouble"))

	require.Len(t, cs.requests, 1)
	assert.Equal(t, "gateway is in trouble", cs.requests[0].Text)
	assert.Equal(t, "#gateway-ops", cs.requests[0].Channel)
	assert.Empty(t, cs.requests[0].RoomID)

	assert.Equal(t, "watchdog-bot", cs.headers[0].Get("X-User-Id"))
	assert.Equal(t, "secret-token", cs.headers[0].Get("X-Auth-Token"))
}

func TestSendPostsToRoomID(t *testing.T) {
	cs := newChatServer(http.StatusOK)
	defer cs.server.Close()

	n := NewNotifier(discardLogger(), ChannelRocketChat, "GENERAL", cs.account())
	require.NoError(t, n.Send(context.Background(), "hello"))

	require.Len(t, cs.requests, 1)
	assert.Equal(t, "GENERAL", cs.requests[0].RoomID)
	assert.Empty(t, cs.requests[0].Channel)
}

func TestSendEmptyDestinationLogsOnly(t *testing.T) {
	cs := newChatServer(http.StatusOK)
	defer cs.server.Close()

	n := NewNotifier(discardLogger(), ChannelRocketChat, "", cs.account())
	require.NoError(t, n.Send(context.Background(), "logged only"))

	// the delivery call is never invoked
	assert.Empty(t, cs.requests)
}

func TestSendUnsupportedChannelDegradesToLogging(t *testing.T) {
	cs := newChatServer(http.StatusOK)
	defer cs.server.Close()

	n := NewNotifier(discardLogger(), "carrier-pigeon", "#ops", cs.account())
	require.NoError(t, n.Send(context.Background(), "coo"))
	assert.Empty(t, cs.requests)
}

func TestSendMissingAccountDegradesToLogging(t *testing.T) {
	n := NewNotifier(discardLogger(), ChannelRocketChat, "#ops", nil)
	require.NoError(t, n.Send(context.Background(), "nowhere to go"))
}

func TestSendNon2xxIsAlertError(t *testing.T) {
	cs := newChatServer(http.StatusUnauthorized)
	defer cs.server.Close()

	n := NewNotifier(discardLogger(), ChannelRocketChat, "#ops", cs.account())
	err := n.Send(context.Background(), "denied")
	require.Error(t, err)

	alertErr, ok := err.(*AlertError)
	require.True(t, ok)
	assert.Contains(t, alertErr.Error(), "401")
	assert.Equal(t, ChannelRocketChat, alertErr.KVs()["alert.channel"])
}

func TestSendUnreachableServerIsAlertError(t *testing.T) {
	cs := newChatServer(http.StatusOK)
	cs.server.Close()

	n := NewNotifier(discardLogger(), ChannelRocketChat, "#ops", cs.account())
	err := n.Send(context.Background(), "void")
	require.Error(t, err)
	assert.IsType(t, &AlertError{}, err)
}

func TestResolveAccount(t *testing.T) {
	flat := Account{BaseURL: "https://flat", UserID: "u", AuthToken: "t"}
	named := map[string]Account{
		"default": {BaseURL: "https://named", UserID: "u2", AuthToken: "t2"},
	}

	for _, tc := range []struct {
		desc     string
		flat     Account
		accounts map[string]Account
		wantURL  string
		wantOK   bool
	}{
		{
			desc:     "flat record wins when both shapes are valid",
			flat:     flat,
			accounts: named,
			wantURL:  "https://flat",
			wantOK:   true,
		},
		{
			desc:     "named default used when flat is incomplete",
			flat:     Account{BaseURL: "https://flat"},
			accounts: named,
			wantURL:  "https://named",
			wantOK:   true,
		},
		{
			desc:     "non-default entries are ignored",
			accounts: map[string]Account{"other": flat},
			wantOK:   false,
		},
		{
			desc:   "nothing configured",
			wantOK: false,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			acct, ok := ResolveAccount(tc.flat, tc.accounts)
			require.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantURL, acct.BaseURL)
			}
		})
	}
}
