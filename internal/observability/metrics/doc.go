// Package metrics provides process-level Prometheus collectors.
//
// Delivery pipeline metrics live next to the code that records them; this
// package holds collectors that observe shared resources, currently the
// database connection pool.
package metrics
