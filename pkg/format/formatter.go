package format

import (
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
)

// Formatter renders a submission's return value as text.
type Formatter interface {
	Format(value any) string
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(value any) string

// Format implements Formatter.
func (f FormatterFunc) Format(value any) string {
	return f(value)
}

var dumper = &spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Default is the fallback formatter for arbitrary Go values.
var Default Formatter = FormatterFunc(formatValue)

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	}
	return dumper.Sprintf("%+v", value)
}
