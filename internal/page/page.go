package page

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/ovaphlow/pitchfork/service-household-go/internal/page"

// DefaultAction is the action run by a POST without a ?/name selector.
const DefaultAction = "default"

type LoadFunc func(ctx context.Context, r *http.Request) Result

// ActionFunc handles a POST. The body is only read when the action calls
// form, so an action can reject a request before looking at it.
type ActionFunc func(ctx context.Context, r *http.Request, form FormFunc) Result

// Page serves one route: GET runs Load, POST runs an action chosen by the
// query selector (POST /?/createTask runs "createTask").
type Page struct {
	Route   string
	Load    LoadFunc
	Actions map[string]ActionFunc
	Logger  *zap.SugaredLogger
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		Write(w, r, p.load(r))
	case http.MethodPost:
		Write(w, r, p.act(r))
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (p *Page) load(r *http.Request) Result {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "page.load")
	defer span.End()
	span.SetAttributes(attribute.String("http.route", p.Route))

	res := Ok(nil)
	if p.Load != nil {
		res = p.Load(ctx, r.WithContext(ctx))
	}
	annotate(span, res)
	return res
}

func (p *Page) act(r *http.Request) Result {
	name, named := ActionName(r.URL)
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "page.action")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.route", p.Route),
		attribute.String("page.action", name),
	)

	res := p.dispatch(ctx, r.WithContext(ctx), name, named)
	annotate(span, res)
	return res
}

func (p *Page) dispatch(ctx context.Context, r *http.Request, name string, named bool) Result {
	if len(p.Actions) == 0 {
		return Fail(http.StatusMethodNotAllowed, "POST method not allowed. No actions exist for this page")
	}
	action, ok := p.Actions[name]
	if !ok {
		if !named {
			return Fail(http.StatusBadRequest, "When using named actions, the default action cannot be used")
		}
		return Fail(http.StatusNotFound, fmt.Sprintf("No action with name '%s' found", name))
	}
	form := func() (Form, error) {
		f, err := ParseForm(r)
		if err != nil {
			p.Logger.Debugw("invalid form submission", "route", p.Route, "action", name, "err", err)
		}
		return f, err
	}
	return action(ctx, r, form)
}

// ActionName extracts the action selector from a query like "?/createTask".
// It reports false when no selector is present.
func ActionName(u *url.URL) (string, bool) {
	for _, part := range strings.Split(u.RawQuery, "&") {
		key := part
		if i := strings.IndexByte(part, '='); i >= 0 {
			key = part[:i]
		}
		if k, err := url.QueryUnescape(key); err == nil && strings.HasPrefix(k, "/") {
			return k[1:], true
		}
	}
	return DefaultAction, false
}

func annotate(span trace.Span, res Result) {
	span.SetAttributes(
		attribute.String("page.result", res.Kind.String()),
		attribute.Int("http.response.status_code", res.Status),
	)
	if res.Kind == KindFailure && res.Status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, res.Message)
	}
}
