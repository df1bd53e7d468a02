// Package main (cmd/plantctl) is a command line client for the plants API.
//
// Every command prints the server's data as indented JSON.
//
//	plantctl --token=$TOKEN plants add --name Fern --water-at 09:00 --room r1 --trefle-id 42
//	plantctl --token=$TOKEN plants list
//	plantctl --token=$TOKEN waterings add --plant <id> --watered-at 2024-03-01T09:00:00.000Z --health 0.9
package main
