package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/mockwire/mockwire/pkg/handler"
	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/requestlog"
	"github.com/mockwire/mockwire/pkg/response"
)

// Resolution is the outcome of resolving one observed request.
//
// Three outcomes are distinguishable: fully unmatched (zero value),
// matched but intentionally empty (Handled true, Response nil), and
// matched with a response. The unhandled-request policy for the first
// two belongs to the interception collaborator.
type Resolution struct {
	// Handler is the selected handler, nil when nothing matched.
	Handler handler.Handler

	// Response is the synthesized descriptor, nil when unmatched or
	// when the resolver explicitly produced nothing.
	Response *response.Response

	// Handled reports whether a handler matched, even if it produced
	// no response. Unhandled-request diagnostics are suppressed when
	// true.
	Handled bool
}

// Resolve finds the first eligible handler for the request, invokes its
// resolver exactly once, and returns the outcome. Independent requests
// may resolve concurrently; only the one-shot flags are shared, and they
// are reserved atomically at selection time.
func (e *Engine) Resolve(ctx context.Context, req *request.Request) *Resolution {
	start := time.Now()

	handlers, open := e.snapshot()
	if !open || req == nil {
		return &Resolution{}
	}

	var (
		selected handler.Handler
		parsed   *handler.ParseResult
	)
	for _, h := range handlers {
		usage := h.Usage()
		if usage.Consumed() {
			continue
		}
		pr, ok := h.Parse(req)
		if !ok {
			continue
		}
		if !h.Test(req, pr) {
			continue
		}
		if !usage.Reserve() {
			// Lost the race against a concurrent resolution of the
			// same one-shot handler.
			continue
		}
		selected, parsed = h, pr
		break
	}

	if selected == nil {
		e.log.Debug("no handler matched", "method", req.Method, "url", req.URL.String())
		return &Resolution{}
	}

	transformers, err := e.invoke(ctx, selected, req, parsed)

	switch {
	case errors.Is(err, handler.ErrPassthrough):
		selected.Usage().Release()
		e.logResolution(start, req, selected, parsed, nil, "")
		return &Resolution{Handler: selected, Handled: true}

	case err != nil:
		selected.Usage().Release()
		resp := faultResponse(err)
		e.log.Error("resolver fault", "handler", selected.Describe(), "error", err)
		e.logResolution(start, req, selected, parsed, resp, err.Error())
		return &Resolution{Handler: selected, Response: resp, Handled: true}

	default:
		selected.Usage().Commit()
		resp := response.Compose(transformers...)
		e.logResolution(start, req, selected, parsed, resp, "")
		return &Resolution{Handler: selected, Response: resp, Handled: true}
	}
}

// invoke runs the resolver with panic containment. A panicking resolver
// is a per-request fault, never fatal to the process.
func (e *Engine) invoke(ctx context.Context, h handler.Handler, req *request.Request, parsed *handler.ParseResult) (transformers []response.Transformer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicFault{value: r}
		}
	}()
	return h.Resolve(ctx, req, parsed)
}

// faultResponse synthesizes the 500 descriptor for a resolver fault. It
// deliberately lacks the mock marker header so callers can tell a fault
// from a deliberate mock.
func faultResponse(err error) *response.Response {
	body, marshalErr := json.Marshal(map[string]string{
		"errorType": errorKind(err),
		"message":   err.Error(),
	})
	if marshalErr != nil {
		body = []byte(`{"errorType":"Error"}`)
	}
	return &response.Response{
		StatusCode: http.StatusInternalServerError,
		Status:     http.StatusText(http.StatusInternalServerError),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}
}

// errorKind derives the fault's kind label. Errors may declare their
// kind via a Name() string method; otherwise the Go type name is used.
func errorKind(err error) string {
	var named interface{ Name() string }
	if errors.As(err, &named) {
		return named.Name()
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" || t.Name() == "errorString" {
		return "Error"
	}
	return t.Name()
}

type panicFault struct {
	value any
}

func (p *panicFault) Error() string {
	return fmt.Sprint(p.value)
}

// Name labels panic faults in the synthesized response body.
func (p *panicFault) Name() string {
	return "panic"
}

func (e *Engine) logResolution(start time.Time, req *request.Request, h handler.Handler, parsed *handler.ParseResult, resp *response.Response, faultMsg string) {
	entry := &requestlog.Entry{
		ID:          uuid.NewString(),
		RequestID:   req.ID,
		Timestamp:   start,
		Protocol:    string(h.Protocol()),
		Method:      req.Method,
		URL:         req.URL.String(),
		HandlerInfo: h.Describe(),
		DurationMs:  int(time.Since(start).Milliseconds()),
		Error:       faultMsg,
	}
	if parsed != nil {
		if op, ok := parsed.Operation.(interface{ OperationName() string }); ok {
			entry.OperationName = op.OperationName()
		}
	}
	if resp != nil {
		entry.ResponseStatus = resp.StatusCode
		entry.Mocked = resp.Header.Get(response.MockedByHeader) != ""
	}
	e.reqLog.Log(entry)

	e.log.Info("request resolved",
		"method", req.Method,
		"url", req.URL.String(),
		"handler", h.Describe(),
		"status", entry.ResponseStatus,
		"mocked", entry.Mocked,
	)
}
