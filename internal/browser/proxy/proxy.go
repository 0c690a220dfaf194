// internal/browser/proxy/proxy.go
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/elazarl/goproxy"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

// Observer is a local MITM proxy that records every completed round trip as a
// Request action. Traffic is forwarded unchanged.
type Observer struct {
	proxy  *goproxy.ProxyHttpServer
	sink   recorder.Sink
	ctx    context.Context
	logger *zap.Logger
	warn   rate.Sometimes

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates an Observer that submits to sink under ctx.
func New(ctx context.Context, sink recorder.Sink, logger *zap.Logger, verbose bool) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := goproxy.NewProxyHttpServer()
	p.Verbose = verbose

	o := &Observer{
		proxy:  p,
		sink:   sink,
		ctx:    ctx,
		logger: logger.Named("proxy_observer"),
		warn:   rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}

	p.OnRequest().HandleConnect(goproxy.AlwaysMitm)
	p.OnResponse().DoFunc(o.handleResponse)
	return o
}

// Handler exposes the proxy for embedding in another server.
func (o *Observer) Handler() http.Handler { return o.proxy }

func (o *Observer) handleResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	if ctx == nil || ctx.Req == nil {
		return resp
	}
	if resp == nil {
		// Upstream failed. Not a completed round trip, so nothing is recorded.
		o.logger.Debug("Proxied request failed.", zap.String("url", requestURL(ctx)), zap.Error(ctx.Error))
		status := http.StatusBadGateway
		var netErr net.Error
		if errors.As(ctx.Error, &netErr) && netErr.Timeout() {
			status = http.StatusGatewayTimeout
		}
		return goproxy.NewResponse(ctx.Req, goproxy.ContentTypeText, status, "upstream request failed")
	}

	req := action.Request{URL: requestURL(ctx), Method: ctx.Req.Method, Status: resp.StatusCode}
	if err := o.sink.Submit(o.ctx, recorder.ActionEvent(req)); err != nil &&
		!errors.Is(err, recorder.ErrSessionClosed) && !errors.Is(err, context.Canceled) {
		o.warn.Do(func() {
			o.logger.Warn("Could not record request.", zap.String("url", req.URL), zap.Error(err))
		})
	}
	return resp
}

func requestURL(ctx *goproxy.ProxyCtx) string {
	if ctx != nil && ctx.Req != nil && ctx.Req.URL != nil {
		return ctx.Req.URL.String()
	}
	return "unknown"
}

// Start listens on addr (host:port, port 0 for any) and serves the proxy in
// the background. It returns the proxy URL to hand to the browser.
func (o *Observer) Start(addr string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.server != nil {
		return "http://" + o.listener.Addr().String(), nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	o.listener = ln
	o.server = &http.Server{
		Handler:           o.proxy,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("Proxy server stopped unexpectedly.", zap.Error(err))
		}
	}(o.server)

	proxyURL := "http://" + ln.Addr().String()
	o.logger.Info("Observation proxy listening.", zap.String("url", proxyURL))
	return proxyURL, nil
}

// Close stops the proxy server.
func (o *Observer) Close(ctx context.Context) error {
	o.mu.Lock()
	srv := o.server
	o.server, o.listener = nil, nil
	o.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down proxy: %w", err)
	}
	return nil
}
