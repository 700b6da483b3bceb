// Package pb holds the generated wire messages exchanged between peers.
package pb

//go:generate protoc --go_out=. --go_opt=paths=source_relative pilot.proto
