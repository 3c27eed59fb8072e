package common

import (
	"errors"
	"fmt"
)

type ErrorCollector struct {
	errs []error
}

// Add appends err to the collection. nil errors are ignored so results of
// calls can be passed in directly.
func (c *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}
	c.errs = append(c.errs, err)
}

func (c *ErrorCollector) Addf(format string, args ...interface{}) {
	c.Add(fmt.Errorf(format, args...))
}

func (c *ErrorCollector) HasErrors() bool {
	return len(c.errs) > 0
}

func (c *ErrorCollector) Combine() error {
	if c.HasErrors() {
		return errors.New(c.String())
	}
	return nil
}

func (c *ErrorCollector) String() string {
	result := ""
	for i, err := range c.errs {
		result += err.Error()
		if i != len(c.errs)-1 {
			result += "; "
		}
	}
	return result
}
