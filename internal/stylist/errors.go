package stylist

import "fmt"

// IndexError reports an outfit index outside the result.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("outfit index %d out of range [0,%d)", e.Index, e.Len)
}
