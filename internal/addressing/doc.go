// Package addressing derives ledger addresses from principals.
//
// Every function is pure: the same principal and subaccount always produce
// the same bytes, and the byte layouts match what the ICP ledger and the
// ICRC-1 cycles ledger expect.
//
//   - DeriveSubaccount packs a principal into a 32-byte subaccount
//     (length byte, principal bytes, zero padding).
//   - DeriveAccountID computes the legacy account identifier:
//     crc32(hash) || sha224(0x0A "account-id" || principal || subaccount).
//   - EncodeICRCAccount / DecodeICRCAccount implement the ICRC-1 textual
//     account format.
package addressing
