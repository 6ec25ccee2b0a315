// Package devserver is an in-memory implementation of the tip-jar service and
// its two ledgers, used for local development and integration tests.
//
// HTTP API
//
//	POST /delegate                  move the caller's record to another principal
//	POST /allocate                  direct cycles to a canister
//	GET  /aboutme                   the caller's record
//	GET  /stats                     service-wide totals
//	POST /ping                      echo the authenticated caller
//	POST /ledger/account_balance    ICP balance by legacy account id
//	POST /cycles/icrc1_balance_of   cycle balance by ICRC-1 account
//	POST /ledger/send_dfx           transfer ICP from the caller's account
//	POST /ledger/notify_dfx         mint cycles for a top-up transfer
//	POST /dev/credit                seed balances for a principal
//
// Every request is authenticated from the signed envelope described in package
// remote. Anonymous callers are accepted; they simply have no record.
//
// Top-ups follow the ledger's two steps: a transfer to the minting account
// under the canister's subaccount with memo 0x50555054, then a notify that
// mints CyclesPerE8s cycles per e8s for that canister.
//
// All state is held in memory and lost on process exit.
package devserver
