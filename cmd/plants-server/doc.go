// Package main (cmd/plants-server) runs the house plants API.
//
// The server resolves its secrets (env:, file: and vault:// references), opens
// the document store named by --store-uri, builds the identity provider named
// by --auth-uri and serves the API until SIGINT or SIGTERM.
//
// Example usage with a local sqlite file and HMAC tokens:
//
//	JWT_SECRET=changeme plants-server \
//	    --store-uri=sqlite://./plants.db \
//	    --auth-uri='jwt://?secret=env:JWT_SECRET&issuer=plants' \
//	    --listen-addr=0.0.0.0:8080
//
// Example usage against Firestore with Firebase ID tokens:
//
//	plants-server \
//	    --store-uri=firestore://my-project \
//	    --auth-uri=firebase://my-project
package main
