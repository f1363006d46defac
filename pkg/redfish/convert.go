package redfish

import (
	"strconv"
	"strings"
)

// Registry is the capability set a diagnostic needs to be rendered on the
// wire: an identifier, a severity, resolution guidance, the rendered text and
// its positional arguments.
type Registry interface {
	ID() string
	Severity() Health
	Resolution() string
	Message() string
	Args() []string
}

// MessageTemplate is one entry of a message registry. Message may reference
// positional arguments as %1, %2, ...
type MessageTemplate struct {
	RegistryPrefix string
	Key            string
	Severity       Health
	Message        string
	Resolution     string
	NumArgs        int
}

// ID returns the fully qualified message id, e.g. "Base.1.16.0.GeneralError".
func (t MessageTemplate) ID() string {
	return t.RegistryPrefix + "." + t.Key
}

// With binds positional arguments to the template. Missing arguments render
// as empty strings, extra arguments are kept in Args but not substituted.
func (t MessageTemplate) With(args ...string) Diagnostic {
	bound := make([]string, 0, max(len(args), t.NumArgs))
	bound = append(bound, args...)
	for len(bound) < t.NumArgs {
		bound = append(bound, "")
	}

	return Diagnostic{
		MessageID: t.ID(),
		Level:     t.Severity,
		Text:      render(t.Message, bound[:t.NumArgs]),
		Resolve:   t.Resolution,
		Arguments: bound,
	}
}

// Diagnostic is an immutable, already-rendered registry message.
type Diagnostic struct {
	MessageID string
	Level     Health
	Text      string
	Resolve   string
	Arguments []string
}

func (d Diagnostic) ID() string         { return d.MessageID }
func (d Diagnostic) Severity() Health   { return d.Level }
func (d Diagnostic) Resolution() string { return d.Resolve }
func (d Diagnostic) Message() string    { return d.Text }
func (d Diagnostic) Args() []string     { return append([]string(nil), d.Arguments...) }

// render substitutes %n placeholders, highest index first so %1 never eats
// the prefix of %10.
func render(format string, args []string) string {
	out := format
	for i := len(args); i >= 1; i-- {
		out = strings.ReplaceAll(out, "%"+strconv.Itoa(i), args[i-1])
	}
	return out
}

// IntoMessage converts a registry diagnostic into a wire Message.
func IntoMessage(r Registry) Message {
	args := r.Args()
	if args == nil {
		args = []string{}
	}
	return Message{
		ODataType:       "#Message.v1_2_1.Message",
		MessageID:       r.ID(),
		Message:         r.Message(),
		MessageArgs:     args,
		Severity:        string(r.Severity()),
		MessageSeverity: r.Severity(),
		Resolution:      r.Resolution(),
	}
}

// IntoEventRecord converts a registry diagnostic into an EventRecord. Event
// records carry no resolution.
func IntoEventRecord(r Registry) EventRecord {
	args := r.Args()
	if args == nil {
		args = []string{}
	}
	return EventRecord{
		MessageID:       r.ID(),
		Message:         r.Message(),
		MessageArgs:     args,
		MessageSeverity: r.Severity(),
	}
}

// OneMessage wraps a single message in an error envelope.
func OneMessage(m Message) Error {
	return NewError(m)
}

// NewError builds an error envelope. The top-level code and message mirror
// the first message only; every message is kept in order as extended info.
func NewError(first Message, rest ...Message) Error {
	info := make([]Message, 0, 1+len(rest))
	info = append(info, first)
	info = append(info, rest...)

	return Error{
		Error: RedfishError{
			Code:                first.MessageID,
			Message:             first.Message,
			MessageExtendedInfo: info,
		},
	}
}

// ErrorFrom converts one or more registry diagnostics into an error envelope.
func ErrorFrom(first Registry, rest ...Registry) Error {
	more := make([]Message, len(rest))
	for i, r := range rest {
		more[i] = IntoMessage(r)
	}
	return NewError(IntoMessage(first), more...)
}
