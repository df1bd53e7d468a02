/*
Package api holds the wire types and server configuration of the house-plants API.

Subpackages:

 1. planthandler - routes, bearer authentication and status mapping
 2. servers - HTTP server lifecycle, health and drain endpoints, metrics listener
 3. clients - Go client for the API

# Envelope

Every response body, success or failure, has the shape

	{"status": 200, "data": ..., "message": "..."}

where status repeats the HTTP status code and message is present on errors.
204 responses have no body.

# Routes

All routes require "Authorization: Bearer <token>" and are served both at the
root and under /api/v1.

	GET    /users/me
	POST   /plants
	GET    /plants
	PUT    /plants/{plantId}
	DELETE /plants/{plantId}
	POST   /rooms
	GET    /rooms
	PUT    /rooms/{roomId}
	DELETE /rooms/{roomId}
	POST   /plants/{plantId}/waterings
	GET    /plants/{plantId}/waterings
	PUT    /plants/{plantId}/waterings/{wateringId}
	DELETE /plants/{plantId}/waterings/{wateringId}

# Status Codes

	400 missing or malformed body field
	401 missing or invalid bearer token
	403 resource owned by another user
	404 resource does not exist
	409 name already used by the caller
	500 document store failure
*/
package api
