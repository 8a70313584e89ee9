package mesh

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAttribute       = errors.New("missing vertex attribute")
	ErrInvalidAttributeFormat = errors.New("invalid vertex attribute format")
)

// AttributeError ties one of the sentinel errors above to the attribute that
// caused it.
type AttributeError struct {
	Attribute string
	Detail    string
	Err       error
}

func (e *AttributeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %q: %s", e.Err, e.Attribute, e.Detail)
	}
	return fmt.Sprintf("%s %q", e.Err, e.Attribute)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

func missingAttribute(name string) error {
	return &AttributeError{Attribute: name, Err: ErrMissingAttribute}
}

func invalidFormat(name string, detail string) error {
	return &AttributeError{Attribute: name, Detail: detail, Err: ErrInvalidAttributeFormat}
}
