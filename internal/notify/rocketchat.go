package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

// postMessagePath is Rocket.Chat's message-post endpoint.
const postMessagePath = "/api/v1/chat.postMessage"

// defaultHTTPTimeout bounds one delivery attempt so a hung chat server
// cannot stall a watchdog tick.
const defaultHTTPTimeout = 10 * time.Second

// Account holds the credentials for one Rocket.Chat server.
type Account struct {
	BaseURL   string `yaml:"base_url"`
	UserID    string `yaml:"user_id"`
	AuthToken string `yaml:"auth_token"`
}

// valid reports whether the account carries everything needed to post.
func (a Account) valid() bool {
	return a.BaseURL != "" && a.UserID != "" && a.AuthToken != ""
}

// ResolveAccount picks the account to use from the two configuration shapes
// the channel supports: a flat record, or a named map with a "default"
// entry. The flat record wins when both are present and valid.
func ResolveAccount(flat Account, accounts map[string]Account) (Account, bool) {
	if flat.valid() {
		return flat, true
	}
	if acct, ok := accounts["default"]; ok && acct.valid() {
		return acct, true
	}
	return Account{}, false
}

// postMessageReq is the chat.postMessage request body. Exactly one of
// Channel or RoomID is set, depending on the destination sigil.
type postMessageReq struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// RocketChatClient posts messages to a Rocket.Chat server.
type RocketChatClient struct {
	account    Account
	httpClient *http.Client
}

// NewRocketChatClient builds a client for the given account.
func NewRocketChatClient(account Account) *RocketChatClient {
	return &RocketChatClient{
		account:    account,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// PostMessage sends text to the given destination. A destination starting
// with "#" is addressed as a named channel; anything else is treated as an
// opaque room identifier.
func (c *RocketChatClient) PostMessage(ctx context.Context, to, text string) error {
	payload := postMessageReq{Text: text}
	if strings.HasPrefix(to, "#") {
		payload.Channel = to
	} else {
		payload.RoomID = to
	}

	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return fmt.Errorf("could not encode chat.postMessage body: %w", marshalErr)
	}

	url := strings.TrimRight(c.account.BaseURL, "/") + postMessagePath
	req, reqErr := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return fmt.Errorf("could not build chat.postMessage request: %w", reqErr)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", c.account.UserID)
	req.Header.Set("X-Auth-Token", c.account.AuthToken)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf("chat.postMessage request failed: %w", doErr)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		snippet, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf(
			"chat.postMessage returned %d: %s", resp.StatusCode, string(snippet),
		)
	}
	return nil
}
