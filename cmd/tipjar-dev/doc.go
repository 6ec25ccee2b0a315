// Package main runs the in-memory tip-jar service used during development and
// tests. See package devserver for the HTTP API.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - Every request is logged with method, path, remote, status, bytes and
//     duration, and counted in the Prometheus registry served at /metrics.
//   - The default listen address is :8080.
//
// Balances are seeded with POST /dev/credit, for example:
//
//	curl -d '{"principal":"<text>","icp_e8s":100000000,"cycles":5000000000000,"wallet_e8s":100000000}' \
//	    http://127.0.0.1:8080/dev/credit
package main
