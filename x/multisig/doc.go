/*
Package multisig implements the signing engine of an M-of-N multisig wallet
for one network.

Signing a multisig transaction is an offline ceremony. The Safe does not
sign when asked to: it stores the transaction for the offline flow, shows it
through the Navigator and reports the request as delegated. Each cosigner
device then adds its own signature with SignTransactionReal. Payloads move
between devices in their hex form and are merged on arrival, so a stored
transaction only ever gains signatures.

The Coordinator drives one transaction from its proposal to its publication:

	UNSIGNED -> PARTIALLY_SIGNED -> FULLY_SIGNED -> PUBLISHED

A transaction can be discarded, and so CANCELLED, at any point before it is
published. Whether enough cosigners signed is decided from the payload every
time, never from a cached count.
*/
package multisig
