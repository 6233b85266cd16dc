// Package domain contains the core entities of the marketplace's
// authentication subsystem: identities, the principal resolved for a request,
// and the error categories every other layer maps onto.
package domain
