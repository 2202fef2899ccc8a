// Package events distributes run lifecycle events to subscribers.
//
// A coordinator configured with a Hub publishes one event per run and
// step transition. Subscribers receive events on buffered channels;
// a slow subscriber never stalls the publisher, overflowing events are
// dropped and counted instead.
//
// # Usage
//
//	hub := events.NewHub()
//	defer hub.Close()
//
//	sub := hub.Subscribe("dashboard", 0)
//	go func() {
//	    for e := range sub.Events() {
//	        fmt.Println(e.Type, e.Step)
//	    }
//	}()
//
// ServeSSE streams hub events to HTTP clients as Server-Sent Events for
// live run dashboards.
package events
