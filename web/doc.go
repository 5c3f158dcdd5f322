// Package web adapts HTTP requests to the Engine.
//
// [Service] is transport-agnostic: it takes already-parsed form fields or
// cookies and returns a [Response] holding status, body, headers and an
// optional cookie. [Handler] is the net/http glue that parses requests,
// calls the Service and writes the Response.
package web
