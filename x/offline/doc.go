/*
Package offline keeps the transactions of a device that are waiting for more
cosigner signatures.

Records are scoped by sub wallet and keyed by the content key of the
transaction, so every signature stage of one transaction lands on the same
record. Storing a payload never loses a signature already stored: both
payloads are merged by the chain SDK first.
*/
package offline
