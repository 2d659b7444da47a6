package orders

import "fmt"

// OrderPersistenceError reports an order that could not be written after
// its payment was captured.
type OrderPersistenceError struct {
	Err error
}

func (e *OrderPersistenceError) Error() string {
	return fmt.Sprintf("order not persisted: %v", e.Err)
}

func (e *OrderPersistenceError) Unwrap() error {
	return e.Err
}
