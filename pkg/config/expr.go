package config

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mockwire/mockwire/pkg/request"
	"github.com/mockwire/mockwire/pkg/response"
)

// predicate gates handler matching beyond the method and mask.
type predicate func(*request.Request, map[string]string) bool

// compileWhen compiles a "when" expression. The expression sees the
// request as:
//
//	method  string
//	path    string
//	params  map[string]string (named mask parameters)
//	query   func(name) string
//	header  func(name) string
func compileWhen(code string) (predicate, error) {
	if code == "" {
		return nil, nil
	}

	program, err := expr.Compile(code, expr.Env(whenEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid when expression %q: %w", code, err)
	}

	return func(req *request.Request, params map[string]string) bool {
		out, err := vm.Run(program, newWhenEnv(req, params))
		if err != nil {
			return false
		}
		ok, isBool := out.(bool)
		return isBool && ok
	}, nil
}

// whenEnv is the expression environment for one request.
type whenEnv struct {
	Method string              `expr:"method"`
	Path   string              `expr:"path"`
	Params map[string]string   `expr:"params"`
	Query  func(string) string `expr:"query"`
	Header func(string) string `expr:"header"`
}

func newWhenEnv(req *request.Request, params map[string]string) whenEnv {
	if params == nil {
		params = map[string]string{}
	}
	return whenEnv{
		Method: req.Method,
		Path:   req.URL.Path,
		Params: params,
		Query: func(name string) string {
			return req.Query().Get(name)
		},
		Header: func(name string) string {
			return req.Header.Get(name)
		},
	}
}

// transformers translates the static response description into the
// transformer list a built handler returns on every match.
func (rc *ResponseConfig) transformers() ([]response.Transformer, error) {
	var ts []response.Transformer

	if rc.Status != 0 {
		ts = append(ts, response.Status(rc.Status))
	}
	for key, value := range rc.Headers {
		ts = append(ts, response.Header(key, value))
	}

	switch body := rc.Body.(type) {
	case nil:
	case string:
		ts = append(ts, response.Text(body))
	default:
		ts = append(ts, response.JSON(body))
	}

	if rc.Delay != "" {
		d, err := time.ParseDuration(rc.Delay)
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q: %w", rc.Delay, err)
		}
		ts = append(ts, response.Delay(d))
	}

	return ts, nil
}
