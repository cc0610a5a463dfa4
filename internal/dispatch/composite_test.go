package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

type stubSDK struct {
	bot    satori.BotId
	login  satori.Login
	called int32
}

func (s *stubSDK) Start(ctx context.Context, core satori.Core) error {
	<-core.Stopped()
	return nil
}

func (s *stubSDK) CallAPI(ctx context.Context, core satori.Core, bot satori.BotId, payload satori.RawApiCall) (any, error) {
	atomic.AddInt32(&s.called, 1)
	return satori.RawApiCall{Method: payload.Method}, nil
}

func (s *stubSDK) HasBot(ctx context.Context, bot satori.BotId) bool { return bot == s.bot }
func (s *stubSDK) GetLogins(ctx context.Context) []satori.Login      { return []satori.Login{s.login} }

type countingApp struct {
	count int32
}

func (a *countingApp) Start(ctx context.Context, core satori.Core) error {
	<-core.Stopped()
	return nil
}

func (a *countingApp) HandleEvent(ctx context.Context, core satori.Core, event satori.Event) {
	atomic.AddInt32(&a.count, 1)
}

func TestSDKs_CallAPIFirstMatch(t *testing.T) {
	a := &stubSDK{bot: satori.BotId{Platform: "a", ID: "1"}}
	b := &stubSDK{bot: satori.BotId{Platform: "b", ID: "2"}}
	sdks := SDKs{a, b}

	core := New(sdks, Apps{}, nil)
	_, err := sdks.CallAPI(context.Background(), core, b.bot, satori.RawApiCall{Method: "m"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, a.called)
	assert.EqualValues(t, 1, b.called)
}

func TestSDKs_CallAPIUnknownBotIsInvalidBot(t *testing.T) {
	sdks := SDKs{&stubSDK{bot: satori.BotId{Platform: "a", ID: "1"}}}
	core := New(sdks, Apps{}, nil)
	_, err := sdks.CallAPI(context.Background(), core, satori.BotId{Platform: "z", ID: "9"}, satori.RawApiCall{})
	assert.True(t, satori.IsInvalidBot(err))
}

func TestApps_HandleEventFansOutToAll(t *testing.T) {
	a1, a2, a3 := &countingApp{}, &countingApp{}, &countingApp{}
	apps := Apps{a1, a2, a3}
	apps.HandleEvent(context.Background(), New(SDKs{}, apps, nil), satori.Event{ID: 1})
	assert.EqualValues(t, 1, a1.count)
	assert.EqualValues(t, 1, a2.count)
	assert.EqualValues(t, 1, a3.count)
}

func TestCore_ShutdownIsIdempotentAndUnblocksStart(t *testing.T) {
	sdks := SDKs{&stubSDK{}}
	apps := Apps{&countingApp{}}
	core := New(sdks, apps, nil)

	done := make(chan error, 1)
	go func() { done <- core.Start(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	core.Shutdown()
	core.Shutdown() // must not panic or double-close

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("core.Start did not return after Shutdown")
	}
}
