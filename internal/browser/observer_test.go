// internal/browser/observer_test.go
package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

func requestSent(id, url, method string) *network.EventRequestWillBeSent {
	return &network.EventRequestWillBeSent{
		RequestID: network.RequestID(id),
		Request:   &network.Request{URL: url, Method: method},
	}
}

func responseReceived(id string, status int64) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		RequestID: network.RequestID(id),
		Response:  &network.Response{Status: status},
	}
}

func TestNetworkObserver_RequestResponse(t *testing.T) {
	sink := &fakeSink{}
	o := NewNetworkObserver(context.Background(), sink, zap.NewNop())

	o.handleEvent(requestSent("1", "https://x.test/", "GET"))
	o.handleEvent(requestSent("2", "https://x.test/api/login", "POST"))
	assert.Equal(t, 2, o.Pending())

	o.handleEvent(responseReceived("2", 201))
	o.handleEvent(responseReceived("1", 200))

	assert.Equal(t, []action.Request{
		{URL: "https://x.test/api/login", Method: "POST", Status: 201},
		{URL: "https://x.test/", Method: "GET", Status: 200},
	}, sink.requests())
	assert.Zero(t, o.Pending())
}

func TestNetworkObserver_Redirect(t *testing.T) {
	sink := &fakeSink{}
	o := NewNetworkObserver(context.Background(), sink, zap.NewNop())

	o.handleEvent(requestSent("7", "http://x.test/", "GET"))
	redirected := requestSent("7", "https://x.test/", "GET")
	redirected.RedirectResponse = &network.Response{Status: 301}
	o.handleEvent(redirected)
	o.handleEvent(responseReceived("7", 200))

	assert.Equal(t, []action.Request{
		{URL: "http://x.test/", Method: "GET", Status: 301},
		{URL: "https://x.test/", Method: "GET", Status: 200},
	}, sink.requests())
}

func TestNetworkObserver_IgnoresUnobservable(t *testing.T) {
	sink := &fakeSink{}
	o := NewNetworkObserver(context.Background(), sink, zap.NewNop())

	o.handleEvent(requestSent("d", "data:image/png;base64,AAAA", "GET"))
	o.handleEvent(responseReceived("d", 200))
	o.handleEvent(responseReceived("unknown", 200))
	o.handleEvent("not a network event")

	assert.Empty(t, sink.requests())
}

func TestNetworkObserver_LoadingFailed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := &fakeSink{}
	o := NewNetworkObserver(context.Background(), sink, zap.New(core))

	o.handleEvent(requestSent("f", "https://down.test/", "GET"))
	o.handleEvent(&network.EventLoadingFailed{RequestID: "f", ErrorText: "net::ERR_NAME_NOT_RESOLVED"})

	assert.Zero(t, o.Pending())
	assert.Empty(t, sink.requests())
	assert.Equal(t, 1, logs.FilterMessage("Request failed.").Len())
}

func TestNetworkObserver_SubmitFailures(t *testing.T) {
	t.Run("closed session is silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		o := NewNetworkObserver(context.Background(), &fakeSink{err: recorder.ErrSessionClosed}, zap.New(core))

		o.handleEvent(requestSent("1", "https://x.test/", "GET"))
		o.handleEvent(responseReceived("1", 200))
		assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	})

	t.Run("other failures are rate limited", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		o := NewNetworkObserver(context.Background(), &fakeSink{err: errors.New("queue wedged")}, zap.New(core))

		for i := 0; i < 10; i++ {
			id := string(rune('a' + i))
			o.handleEvent(requestSent(id, "https://x.test/"+id, "GET"))
			o.handleEvent(responseReceived(id, 200))
		}
		assert.Equal(t, 3, logs.FilterMessage("Could not record request.").Len())
	})
}
