package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/course-recommender/pkg/events"
	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/gateway"
	"github.com/morezero/course-recommender/pkg/interpreter"
	"github.com/morezero/course-recommender/pkg/registry"
)

const logPrefix = "dispatcher:dispatch"

// ControllerParams holds the collaborators of a Controller. Publisher and Now are optional.
type ControllerParams struct {
	Registry  *registry.Registry
	Gateway   gateway.Gateway
	Publisher events.EventPublisher
	Now       func() time.Time
}

// Controller runs one functionality end to end: lookup, collect, invoke, interpret.
// It keeps no state between calls, so one Controller serves any number of sessions.
type Controller struct {
	registry  *registry.Registry
	gateway   gateway.Gateway
	publisher events.EventPublisher
	now       func() time.Time
}

// NewController creates a new Controller.
func NewController(p ControllerParams) *Controller {
	c := &Controller{
		registry:  p.Registry,
		gateway:   p.Gateway,
		publisher: p.Publisher,
		now:       p.Now,
	}
	if c.publisher == nil {
		c.publisher = &events.NoOpPublisher{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Names lists the selectable functionalities in declaration order.
func (c *Controller) Names() []string {
	return c.registry.ListNames()
}

// FormView is what a surface needs to render one functionality's form.
type FormView struct {
	Name         string               `json:"name"`
	DisplayTitle string               `json:"displayTitle"`
	PageTitle    string               `json:"pageTitle"`
	SubmitLabel  string               `json:"submitLabel"`
	Fields       []registry.FieldSpec `json:"fields"`
	Layout       form.Layout          `json:"layout"`
}

// Form resolves the form for a functionality. It never calls the backend.
func (c *Controller) Form(name string) (*FormView, error) {
	decl, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &FormView{
		Name:         decl.Name,
		DisplayTitle: decl.DisplayTitle,
		PageTitle:    decl.PageTitle,
		SubmitLabel:  decl.SubmitLabel,
		Fields:       decl.InputFields,
		Layout:       form.LayoutFor(decl.InputFields),
	}, nil
}

// DispatchRequest is one submission: the selected functionality and the submitted field values.
type DispatchRequest struct {
	Functionality string            `json:"functionality"`
	Values        map[string]string `json:"values"`
	// Source, when set, is read instead of Values.
	Source form.Source `json:"-"`
}

// Dispatch runs a submission. Either a Presentation or an error is returned, never both.
// Registry and form errors return before the backend is called.
func (c *Controller) Dispatch(ctx context.Context, req *DispatchRequest) (*interpreter.Presentation, error) {
	start := c.now()
	slog.Debug(fmt.Sprintf("%s - functionality=%s", logPrefix, req.Functionality))

	decl, err := c.registry.Lookup(req.Functionality)
	if err != nil {
		c.publish(ctx, req.Functionality, "", start, nil, err)
		return nil, err
	}

	var src form.Source = form.MapSource(req.Values)
	if req.Source != nil {
		src = req.Source
	}
	values, err := form.Collect(decl.InputFields, src)
	if err != nil {
		c.publish(ctx, decl.Name, decl.Operation, start, nil, err)
		return nil, err
	}

	results, err := c.gateway.Invoke(ctx, decl.Operation, values)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - %s failed: %v", logPrefix, decl.Operation, err))
		c.publish(ctx, decl.Name, decl.Operation, start, nil, err)
		return nil, err
	}

	pres, err := interpreter.Interpret(results, decl.Outcome)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - %s returned an unexpected result: %v", logPrefix, decl.Operation, err))
		c.publish(ctx, decl.Name, decl.Operation, start, nil, err)
		return nil, err
	}

	c.publish(ctx, decl.Name, decl.Operation, start, pres, nil)
	return pres, nil
}

// publish reports a finished dispatch. Failures are logged only.
func (c *Controller) publish(ctx context.Context, name, operation string, start time.Time, pres *interpreter.Presentation, err error) {
	now := c.now()
	event := &events.DispatchCompletedEvent{
		Functionality: name,
		Operation:     operation,
		DurationMs:    now.Sub(start).Milliseconds(),
		Timestamp:     now.UTC().Format(time.RFC3339),
	}
	if err != nil {
		event.Outcome = ErrorCode(err)
	} else {
		event.Ok = true
		event.Outcome = string(pres.Kind)
		event.RecordCount = len(pres.Records)
	}
	if perr := c.publisher.PublishDispatched(ctx, event); perr != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish dispatch event: %v", logPrefix, perr))
	}
}

// ErrorCode classifies a dispatch error.
func ErrorCode(err error) string {
	var unknown *registry.UnknownFunctionalityError
	var gwErr *gateway.GatewayError
	var malformed *interpreter.MalformedResultError
	switch {
	case errors.As(err, &unknown):
		return CodeUnknownFunctionality
	case errors.Is(err, form.ErrMissingField):
		return CodeInvalidArgument
	case errors.As(err, &gwErr):
		return CodeGatewayError
	case errors.As(err, &malformed):
		return CodeMalformedResult
	default:
		return CodeInternalError
	}
}
