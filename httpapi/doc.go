// Package httpapi exposes the command handlers and the read API over HTTP with a chi router.
//
// Commands are POSTs on /reservations and /reservations/{id}/<transition>. They answer with the
// reservation state right after the append, so a client always reads its own write.
// Queries are GETs served from the projection and may lag behind.
//
// Domain rejections map to 409 (slot conflict, version conflict, illegal transition), unknown
// reservations to 404, malformed requests to 400 and store failures to 503 with a Retry-After header.
package httpapi
