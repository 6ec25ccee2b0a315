// Package commands defines the tipjar CLI and wires dependencies for subcommands.
//
// Commands
//
//   - status         Show the session state, principal and deposit addresses
//   - login          Sign in through the identity provider
//   - logout         End the session and fall back to anonymous
//   - temp           Switch to a fresh temporary identity
//   - import <pem>   Adopt an Ed25519 key from a PEM file
//   - about          Fetch and show the donor record
//   - allocate       Direct cycles to a canister
//   - balance        Query the ledgers for the deposit account
//   - stats          Show service-wide totals
//   - ping           Check the service accepts our requests
//   - topup-account  Print the minting account that tops up a canister
//   - topup <e8s>    Convert ICP from your own account into cycles
//   - watch          Keep balances fresh and drop an expired login until interrupted
//
// # Implementation
//
// The root command loads the configuration, builds the dependency graph and
// starts the session before any subcommand runs, so every handler sees the
// restored identity.
package commands
