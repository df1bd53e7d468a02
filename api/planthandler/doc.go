// Package planthandler serves the authenticated house-plants API on a chi router.
//
// Each route authenticates the bearer token, passes the resulting principal
// explicitly to the service call, and writes the result in the api.Envelope
// shape. Service errors are classified with errors.Is into 400, 401, 403,
// 404 and 409; anything else, including store failures, becomes a 500 whose
// details are logged and never returned.
//
// Watering routes first check that the caller owns the parent plant. A
// missing plant is 404, except for DELETE which stays idempotent and answers 204.
package planthandler
