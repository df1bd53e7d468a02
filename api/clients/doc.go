/*
Package clients provides a Go client for the plants HTTP API.

PlantsClient implements api.PlantsAPI. It sends the configured bearer token
with every request, unwraps the response envelope and turns non-2xx answers
into *APIError values carrying the status and the server's message.

# Example Usage

	client := &clients.PlantsClient{
	    ServerAddr: "http://127.0.0.1:8080",
	    Token:      token,
	}

	id, err := client.CreatePlant(ctx, &interfaces.PlantInput{...})
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
	    // a plant with this name already exists
	}
*/
package clients
