package filters

import "fmt"

// UnknownFilterError reports a name missing from the catalog.
type UnknownFilterError struct {
	Name string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("could not find filter %s", e.Name)
}
