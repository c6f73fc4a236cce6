// Package sink converts sensor frames into the messages published for each output.
// Every sink owns one long-lived message that is refilled in place on each frame.
package sink

import (
	"go.viam.com/depthcamera/activation"
	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/sensors"
)

// Sink fills its message from frames of sample type T.
type Sink[T sensors.Sample] interface {
	// Kind is the output whose demand gates this sink.
	Kind() activation.Kind
	// Message returns the message owned by the sink. It is only stable between fills.
	Message() msgs.Message
	// Fill overwrites the message with the contents of f.
	Fill(f sensors.Frame[T]) error
}

// EachPixel visits every pixel of a rows x cols grid row by row. i is the row-major
// pixel index.
func EachPixel(rows, cols int, fn func(row, col, i int)) {
	i := 0
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			fn(row, col, i)
			i++
		}
	}
}

// EachPixelColumnMajor visits every pixel column by column. n counts visits, so it
// is the column-major index, not the pixel index.
func EachPixelColumnMajor(rows, cols int, fn func(row, col, n int)) {
	n := 0
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			fn(row, col, n)
			n++
		}
	}
}
