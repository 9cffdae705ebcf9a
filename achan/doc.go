// Package achan implements two asynchronous channel variants: a one-shot
// single-value channel (OneShot) and a bounded multi-producer channel
// (Bounded). Both share the same wake discipline — a sender blocked on a
// full buffer is woken whenever the receiver drains an item; the receiver
// is woken whenever a sender succeeds — documented in detail on inner.
package achan
