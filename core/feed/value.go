package feed

import (
	"fmt"
	"strings"
)

const (
	errorPrefix       = "Error fetching price: "
	initializingValue = "Initializing"
)

// Value is one line of the feed. It never contains the trailing newline;
// Line adds it for the wire.
type Value string

// NewValue trims trailing line terminators so a Value is always a single line.
func NewValue(s string) Value {
	return Value(strings.TrimRight(s, "\r\n"))
}

func (v Value) String() string {
	return string(v)
}

// Line returns the newline-terminated wire form.
func (v Value) Line() []byte {
	s := strings.TrimRight(string(v), "\r\n")
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	return append(b, '\n')
}

// ErrorValue turns a fetch failure into a line consumers can see.
func ErrorValue(err error) Value {
	if err == nil {
		return NewValue(errorPrefix + "unknown error")
	}
	return NewValue(errorPrefix + strings.ReplaceAll(err.Error(), "\n", " "))
}

// IsError reports whether v was produced by ErrorValue.
func IsError(v Value) bool {
	return strings.HasPrefix(string(v), errorPrefix)
}

// Initializing is the placeholder sent to consumers that connect before the
// first value exists.
func Initializing(symbol string) Value {
	if symbol == "" {
		return Value("Stock Price: " + initializingValue)
	}
	return Value(fmt.Sprintf("Stock Price (%s): %s", symbol, initializingValue))
}

// QuoteValue formats a price for symbol the way every source reports it.
func QuoteValue(symbol string, price float64) Value {
	if symbol == "" {
		return Value(fmt.Sprintf("Stock Price: %.2f", price))
	}
	return Value(fmt.Sprintf("Stock Price (%s): %.2f", symbol, price))
}

// Update is a Value stamped with its position in publication order.
// Seq starts at 1 and increases by one per published value.
type Update struct {
	Seq   uint64
	Value Value
}
