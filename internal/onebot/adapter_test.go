package onebot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

func TestAdapter_HasBot(t *testing.T) {
	a := New("ws://localhost", "", "12345", nil)
	assert.True(t, a.HasBot(context.Background(), satori.BotId{Platform: "OneBot", ID: "12345"}))
	assert.False(t, a.HasBot(context.Background(), satori.BotId{Platform: "OneBot", ID: "other"}))
	assert.False(t, a.HasBot(context.Background(), satori.BotId{Platform: "discord", ID: "12345"}))
}

func TestAdapter_GetLoginsReflectsOnlineState(t *testing.T) {
	a := New("ws://localhost", "", "12345", nil)
	logins := a.GetLogins(context.Background())
	assert.Equal(t, satori.StatusOffline, logins[0].Status)

	a.setOnline(true)
	logins = a.GetLogins(context.Background())
	assert.Equal(t, satori.StatusOnline, logins[0].Status)
}

func TestAdapter_CallAPIRejectsNonMessageCreate(t *testing.T) {
	a := New("ws://localhost", "", "12345", nil)
	_, err := a.CallAPI(context.Background(), nil, satori.BotId{Platform: "OneBot", ID: "12345"}, satori.RawApiCall{Method: "message.delete"})
	apiErr, ok := err.(*satori.Error)
	if assert.True(t, ok) {
		assert.Equal(t, 405, apiErr.HTTPStatus())
	}
}

func TestAdapter_FailAllPendingUnblocksWaiters(t *testing.T) {
	a := New("ws://localhost", "", "12345", nil)
	waiter := pendingCall{resp: make(chan ActionResp, 1), err: make(chan error, 1)}
	a.mu.Lock()
	a.pending["echo1"] = waiter
	a.mu.Unlock()

	a.failAllPending(assert.AnError)
	select {
	case err := <-waiter.err:
		assert.Equal(t, assert.AnError, err)
	default:
		t.Fatal("expected waiter to be failed")
	}
}

func TestNewEcho_ProducesEightLowercaseChars(t *testing.T) {
	echo := newEcho()
	assert.Len(t, echo, 8)
	assert.Equal(t, echo, toLowerASCII(echo))
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
