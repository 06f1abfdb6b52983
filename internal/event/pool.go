package event

import (
	"sync"
)

// Event pools reduce GC pressure on the live-feed hotpath. The gateway
// acquires an event per decoded log; the apply loop releases it after the
// cache mutation has been published.
//
// Usage:
//
//	ev := AcquireOrderCreated()
//	ev.OrderID = id
//	// ... send through the inbox ...
//	ReleaseOrderCreated(ev)  // Return to pool after processing
var orderCreatedPool = sync.Pool{
	New: func() interface{} {
		return &OrderCreated{}
	},
}

// AcquireOrderCreated gets an OrderCreated event from the pool.
// The returned event has zero values and must be initialized.
func AcquireOrderCreated() *OrderCreated {
	return orderCreatedPool.Get().(*OrderCreated)
}

// ReleaseOrderCreated returns an OrderCreated event to the pool.
// The event is reset to zero values before being pooled.
func ReleaseOrderCreated(ev *OrderCreated) {
	if ev == nil {
		return
	}
	ev.OrderID = 0
	ev.Maker = [20]byte{}
	ev.Taker = [20]byte{}
	ev.SellToken = [20]byte{}
	ev.BuyToken = [20]byte{}
	ev.SellAmount = nil
	ev.BuyAmount = nil
	ev.CreatedAt = 0
	ev.CreationFee = nil

	orderCreatedPool.Put(ev)
}

// OrderFilled pool
var orderFilledPool = sync.Pool{
	New: func() interface{} {
		return &OrderFilled{}
	},
}

// AcquireOrderFilled gets an OrderFilled event from the pool.
func AcquireOrderFilled() *OrderFilled {
	return orderFilledPool.Get().(*OrderFilled)
}

// ReleaseOrderFilled returns an OrderFilled event to the pool.
func ReleaseOrderFilled(ev *OrderFilled) {
	if ev == nil {
		return
	}
	ev.OrderID = 0
	ev.Taker = [20]byte{}

	orderFilledPool.Put(ev)
}

// Release returns a pooled event to its pool after the apply loop has
// finished with it. Non-pooled kinds are a no-op.
func Release(ev Event) {
	switch e := ev.(type) {
	case *OrderCreated:
		ReleaseOrderCreated(e)
	case *OrderFilled:
		ReleaseOrderFilled(e)
	}
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
// It acquires and releases a batch of events.
func Warmup() {
	const batchSize = 256

	created := make([]*OrderCreated, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		created = append(created, AcquireOrderCreated())
	}
	for _, ev := range created {
		ReleaseOrderCreated(ev)
	}

	filled := make([]*OrderFilled, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		filled = append(filled, AcquireOrderFilled())
	}
	for _, ev := range filled {
		ReleaseOrderFilled(ev)
	}
}
