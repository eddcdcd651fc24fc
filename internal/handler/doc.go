// Package handler implements the HTTP endpoints of the lending API.
//
// Handlers decode JSON, take the actor from the request context, call one
// service operation and write either a DataResponse/CollectionResponse or an
// RFC 9457 problem. Service errors are mapped by kind in MapServiceError:
//
//	validation   -> 422 (field_errors carries the per-field messages)
//	not found    -> 404
//	forbidden    -> 403
//	conflict     -> 409
//	unauthorized -> 401
//	storage      -> 503
//	other        -> 500
//
// Successful writes publish a domain event through events.Emitter.
package handler
